package main

import (
	"flag"
	"fmt"
)

// RunSummaryCommand prints a model's layer summary.
//
// USAGE:
//   go run . summary -model=vit.bin
func RunSummaryCommand(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)

	modelPath := fs.String("model", "", "Path to model file (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *modelPath == "" {
		return fmt.Errorf("--model flag is required")
	}

	model, err := LoadViT(*modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	fmt.Print(model.Summary())
	return nil
}
