package main

import (
	"fmt"
	"os"
)

func main() {
	// Check for command-line mode
	if len(os.Args) > 1 {
		cmd := os.Args[1]
		switch cmd {
		case "rollout":
			if err := RunRolloutCommand(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "evaluate":
			if err := RunEvaluateCommand(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "summary":
			if err := RunSummaryCommand(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "new":
			if err := RunNewCommand(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "help", "-h", "--help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
			printUsage()
			os.Exit(1)
		}
	}

	// Default: show help
	printUsage()
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run . [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  rollout    Compute an attention-rollout overlay for an image")
	fmt.Println("  evaluate   Measure top-1 accuracy over a labeled image directory")
	fmt.Println("  summary    Print a model's layer summary")
	fmt.Println("  new        Create a freshly initialized model file")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  go run . new -model=vit.bin -image-size=224 -patch-size=16")
	fmt.Println("  go run . summary -model=vit.bin")
	fmt.Println("  go run . rollout -model=vit.bin -image=cat.jpg -output=attention.png -html=attention.html")
	fmt.Println("  go run . evaluate -model=vit.bin -images=./imagenet_like -labels=labels_validation.txt")
	fmt.Println()
}
