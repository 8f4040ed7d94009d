package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RunEvaluateCommand measures top-1 accuracy of a model over a directory of
// images with a "filename label" validation file, mirroring the usual
// check-model-performance loop: predict, argmax, compare.
//
// USAGE:
//   go run . evaluate -model=vit.bin -images=./imagenet_like \
//                     -labels=./imagenet_like/labels_validation.txt
func RunEvaluateCommand(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)

	modelPath := fs.String("model", "", "Path to model file (required)")
	imagesDir := fs.String("images", "", "Directory containing the labeled images (required)")
	labelsPath := fs.String("labels", "", "Path to space-delimited labels file (required)")
	useGonum := fs.Bool("gonum", false, "Use the gonum matmul backend")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *modelPath == "" || *imagesDir == "" || *labelsPath == "" {
		return fmt.Errorf("--model, --images and --labels flags are required")
	}

	model, err := LoadViT(*modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if *useGonum {
		model.SetBackend(GonumBackend{})
	}
	cfg := model.Config()

	f, err := os.Open(*labelsPath)
	if err != nil {
		return fmt.Errorf("failed to open labels: %w", err)
	}
	labelMap, err := ParseValidationLabels(f)
	f.Close()
	if err != nil {
		return err
	}
	if len(labelMap) == 0 {
		return fmt.Errorf("no labels found in %s", *labelsPath)
	}

	// Stable evaluation order
	names := make([]string, 0, len(labelMap))
	for name := range labelMap {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Evaluating %d images\n", len(names))

	predictions := make([]int, 0, len(names))
	labels := make([]int, 0, len(names))
	for _, name := range names {
		img, err := LoadImageTensor(filepath.Join(*imagesDir, name))
		if err != nil {
			return err
		}
		shape := img.Shape()
		if shape[0] != cfg.ImageSize || shape[1] != cfg.ImageSize {
			img = fitImage(img, cfg.ImageSize)
		}

		predictions = append(predictions, Argmax(model.Forward(img)))
		labels = append(labels, labelMap[name])
	}

	accuracy, err := Accuracy(predictions, labels)
	if err != nil {
		return err
	}

	fmt.Printf("Accuracy: %.2f %%\n", accuracy*100)
	return nil
}
