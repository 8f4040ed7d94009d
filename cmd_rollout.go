package main

import (
	"errors"
	"flag"
	"fmt"
)

// ===========================================================================
// ROLLOUT CLI - Generating Attention Overlays
// ===========================================================================
//
// This command loads a model, runs inference on an image while capturing
// per-layer attention weights, computes the attention-rollout relevance
// mask, and writes the overlay as a PNG (plus an optional HTML report).
//
// USAGE:
//   go run . rollout -model=vit.bin -image=cat.jpg \
//                    -output=attention.png -html=attention.html
//
// ===========================================================================

// RunRolloutCommand implements the rollout CLI.
//
// This command:
// 1. Loads a trained model
// 2. Loads the input image and fits it to the model's input size
// 3. Runs a forward pass with attention-weight capture
// 4. Computes the rollout mask and writes the overlay artifacts
func RunRolloutCommand(args []string) error {
	fs := flag.NewFlagSet("rollout", flag.ExitOnError)

	modelPath := fs.String("model", "", "Path to model file (required)")
	imagePath := fs.String("image", "", "Path to input image, JPEG or PNG (required)")
	outputPath := fs.String("output", "attention.png", "Output overlay PNG path")
	htmlPath := fs.String("html", "", "Optional HTML report path")
	useGonum := fs.Bool("gonum", false, "Use the gonum matmul backend")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *modelPath == "" {
		return fmt.Errorf("--model flag is required")
	}
	if *imagePath == "" {
		return fmt.Errorf("--image flag is required")
	}

	fmt.Println("===========================================================================")
	fmt.Println("ATTENTION ROLLOUT")
	fmt.Println("===========================================================================")
	fmt.Println()

	// Step 1: Load model
	fmt.Println("Step 1: Loading model from", *modelPath)
	model, err := LoadViT(*modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if *useGonum {
		model.SetBackend(GonumBackend{})
	}
	cfg := model.Config()
	fmt.Printf("  Model loaded: %d layers, %d embed dim, %d heads, %dx%d grid\n",
		cfg.NumLayers, cfg.EmbedDim, cfg.NumHeads, cfg.GridSize(), cfg.GridSize())
	fmt.Println()

	// Step 2: Load image
	fmt.Println("Step 2: Loading image from", *imagePath)
	img, err := LoadImageTensor(*imagePath)
	if err != nil {
		return err
	}
	shape := img.Shape()
	if shape[0] != cfg.ImageSize || shape[1] != cfg.ImageSize {
		fmt.Printf("  Resizing %dx%d -> %dx%d to fit model input\n",
			shape[1], shape[0], cfg.ImageSize, cfg.ImageSize)
		img = fitImage(img, cfg.ImageSize)
	}
	fmt.Println()

	// Step 3: Forward pass with attention capture
	fmt.Println("Step 3: Running forward pass and capturing attention weights")
	logits, weights := model.ForwardWithAttention(img)
	fmt.Printf("  Captured attention from %d layers, predicted class %d\n",
		len(weights), Argmax(logits))
	fmt.Println()

	// Step 4: Rollout
	fmt.Println("Step 4: Computing attention rollout")
	overlay, err := BuildAttentionMap(weights, img, cfg.NumClassTokens)
	if errors.Is(err, ErrDegenerateMask) {
		fmt.Println("  Warning: degenerate mask (uniform/zero attention), overlay is black")
	} else if err != nil {
		return err
	}
	fmt.Println()

	// Step 5: Write artifacts
	fmt.Println("Step 5: Writing", *outputPath)
	if err := SaveImagePNG(*outputPath, overlay); err != nil {
		return err
	}

	if *htmlPath != "" {
		composite, err := AttentionRollout(weights, cfg.NumClassTokens)
		if err != nil {
			return err
		}
		mask, err := RolloutMask(composite, cfg.NumClassTokens)
		if err != nil && !errors.Is(err, ErrDegenerateMask) {
			return err
		}
		if err := SaveAttentionHTML(*htmlPath, img, overlay, mask); err != nil {
			return err
		}
		fmt.Println("  Report saved to", *htmlPath)
	}
	fmt.Println()

	fmt.Println("Done. Overlay written to", *outputPath)
	return nil
}

// fitImage resizes each channel of an (H, W, C) image tensor to a square
// target size with bilinear interpolation.
func fitImage(img *Tensor, size int) *Tensor {
	h, w, c := img.Shape()[0], img.Shape()[1], img.Shape()[2]

	out := NewTensor(size, size, c)
	channel := NewTensor(h, w)
	for ch := 0; ch < c; ch++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				channel.Set(img.At(y, x, ch), y, x)
			}
		}
		resized := ResizeBilinear(channel, size, size)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				out.Set(resized.At(y, x), y, x, ch)
			}
		}
	}

	return out
}
