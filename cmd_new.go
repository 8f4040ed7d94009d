package main

import (
	"flag"
	"fmt"
)

// RunNewCommand creates a freshly initialized model file. Useful for
// exercising the rollout pipeline end to end before trained weights exist,
// and for generating fixtures.
//
// USAGE:
//   go run . new -model=vit.bin -image-size=224 -patch-size=16 -layers=12
func RunNewCommand(args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)

	modelPath := fs.String("model", "vit.bin", "Output model file path")
	imageSize := fs.Int("image-size", 32, "Square input image size")
	patchSize := fs.Int("patch-size", 8, "Patch side length")
	embedDim := fs.Int("embed-dim", 64, "Embedding dimension")
	numHeads := fs.Int("heads", 4, "Number of attention heads")
	numLayers := fs.Int("layers", 4, "Number of encoder blocks")
	numClasses := fs.Int("classes", 10, "Number of output classes")
	classTokens := fs.Int("class-tokens", 1, "Number of class tokens")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config := VisionConfig{
		ImageSize:      *imageSize,
		PatchSize:      *patchSize,
		NumChannels:    3,
		EmbedDim:       *embedDim,
		NumHeads:       *numHeads,
		NumLayers:      *numLayers,
		FFHidden:       4 * *embedDim,
		NumClasses:     *numClasses,
		NumClassTokens: *classTokens,
	}
	if err := config.Validate(); err != nil {
		return err
	}

	model := NewViT(config)
	if err := model.Save(*modelPath); err != nil {
		return err
	}

	fmt.Printf("Created %s (%dx%d input, %d layers, %d heads)\n",
		*modelPath, *imageSize, *imageSize, *numLayers, *numHeads)
	return nil
}
