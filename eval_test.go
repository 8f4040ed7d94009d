package main

import (
	"strings"
	"testing"
)

// TestParseValidationLabels parses the standard "filename label" layout.
func TestParseValidationLabels(t *testing.T) {
	input := "image_01.jpg 817\nimage_02.jpg 21\nimage_10.jpg 3\n"

	labels, err := ParseValidationLabels(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(labels) != 3 {
		t.Fatalf("parsed %d entries, want 3", len(labels))
	}
	if labels["image_01.jpg"] != 817 {
		t.Errorf("image_01.jpg = %d, want 817", labels["image_01.jpg"])
	}
	if labels["image_02.jpg"] != 21 {
		t.Errorf("image_02.jpg = %d, want 21", labels["image_02.jpg"])
	}
	if labels["image_10.jpg"] != 3 {
		t.Errorf("image_10.jpg = %d, want 3", labels["image_10.jpg"])
	}
}

// TestParseValidationLabelsErrors covers malformed input.
func TestParseValidationLabelsErrors(t *testing.T) {
	if _, err := ParseValidationLabels(strings.NewReader("image_01.jpg notanumber\n")); err == nil {
		t.Error("expected error for non-numeric label")
	}

	if _, err := ParseValidationLabels(strings.NewReader("only_one_field\n")); err == nil {
		t.Error("expected error for missing label column")
	}

	// Empty input is fine - just no labels
	labels, err := ParseValidationLabels(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if len(labels) != 0 {
		t.Errorf("expected no labels, got %d", len(labels))
	}
}

// TestArgmax tests index-of-maximum on logits.
func TestArgmax(t *testing.T) {
	logits := NewTensor(4)
	logits.data = []float64{0.1, 2.5, -1.0, 2.4}

	if got := Argmax(logits); got != 1 {
		t.Errorf("Argmax = %d, want 1", got)
	}
}

// TestAccuracy checks the fraction-correct computation.
func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]int{1, 2, 3, 4}, []int{1, 2, 0, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc != 0.75 {
		t.Errorf("accuracy = %g, want 0.75", acc)
	}

	acc, err = Accuracy([]int{5}, []int{5})
	if err != nil || acc != 1.0 {
		t.Errorf("perfect accuracy = %g (err %v), want 1.0", acc, err)
	}
}

// TestAccuracyErrors covers mismatched and empty inputs.
func TestAccuracyErrors(t *testing.T) {
	if _, err := Accuracy([]int{1, 2}, []int{1}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := Accuracy(nil, nil); err == nil {
		t.Error("expected error for empty input")
	}
}
