package main

import (
	"path/filepath"
	"testing"
)

// TestImagePNGRoundTrip saves a tensor as PNG and loads it back. PNG is
// lossless, so integer channel values must survive exactly.
func TestImagePNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")

	img := NewTensor(5, 7, 3)
	for i := range img.data {
		img.data[i] = float64((i * 37) % 256)
	}

	if err := SaveImagePNG(path, img); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadImageTensor(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	shape := loaded.Shape()
	if shape[0] != 5 || shape[1] != 7 || shape[2] != 3 {
		t.Fatalf("loaded shape = %v, want [5 7 3]", shape)
	}

	for i := range img.data {
		if loaded.data[i] != img.data[i] {
			t.Fatalf("value %d differs after round trip: %g vs %g", i, loaded.data[i], img.data[i])
		}
	}
}

// TestTensorToImageClamps verifies out-of-range values are clamped.
func TestTensorToImageClamps(t *testing.T) {
	img := NewTensor(1, 2, 3)
	img.data = []float64{-10, 300, 128, 0, 255, 127.6}

	out, err := TensorToImage(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, g, b, _ := out.At(0, 0).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 128 {
		t.Errorf("pixel 0 = (%d, %d, %d), want (0, 255, 128)", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = out.At(1, 0).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 128 {
		t.Errorf("pixel 1 = (%d, %d, %d), want (0, 255, 128)", r>>8, g>>8, b>>8)
	}
}

// TestTensorToImageRejectsBadShapes checks the shape validation.
func TestTensorToImageRejectsBadShapes(t *testing.T) {
	if _, err := TensorToImage(NewTensor(4, 4)); err == nil {
		t.Error("expected error for 2D tensor")
	}
	if _, err := TensorToImage(NewTensor(4, 4, 2)); err == nil {
		t.Error("expected error for 2-channel tensor")
	}
}

// TestLoadImageTensorMissing checks the file error path.
func TestLoadImageTensorMissing(t *testing.T) {
	if _, err := LoadImageTensor(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
