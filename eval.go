package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// Small evaluation helpers: parse a validation-label file and compute top-1
// accuracy over a set of predictions. The label format is one entry per
// line, space-separated:
//
//   image_01.jpg 817
//   image_02.jpg 21
//
// which is the standard "filename label" layout of ImageNet-style
// validation lists.
//
// ===========================================================================

// ParseValidationLabels reads a space-delimited "filename label" file and
// returns the filename -> class index mapping.
func ParseValidationLabels(r io.Reader) (map[string]int, error) {
	reader := csv.NewReader(r)
	reader.Comma = ' '
	reader.FieldsPerRecord = 2

	labels := make(map[string]int)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse labels: %w", err)
		}

		class, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("invalid label %q for %s: %w", row[1], row[0], err)
		}
		labels[row[0]] = class
	}

	return labels, nil
}

// Argmax returns the index of the largest logit. The tensor must be 1D.
func Argmax(logits *Tensor) int {
	if logits.Dims() != 1 {
		panic(fmt.Sprintf("eval: Argmax requires 1D tensor, got %v", logits.Shape()))
	}

	maxIdx := 0
	maxVal := logits.data[0]
	for i := 1; i < len(logits.data); i++ {
		if logits.data[i] > maxVal {
			maxVal = logits.data[i]
			maxIdx = i
		}
	}

	return maxIdx
}

// Accuracy returns the fraction of predictions that exactly match labels.
func Accuracy(predictions, labels []int) (float64, error) {
	if len(predictions) != len(labels) {
		return 0, fmt.Errorf("eval: %d predictions vs %d labels", len(predictions), len(labels))
	}
	if len(predictions) == 0 {
		return 0, fmt.Errorf("eval: no predictions")
	}

	correct := 0
	for i, p := range predictions {
		if p == labels[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(predictions)), nil
}
