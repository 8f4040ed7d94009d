package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	// Registered decoder for LoadImageTensor (png registers via the named
	// import above)
	_ "image/jpeg"
)

// LoadImageTensor decodes a JPEG or PNG file into a (height, width, 3)
// tensor with channel values in [0, 255].
func LoadImageTensor(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	if h == 0 || w == 0 {
		return nil, fmt.Errorf("%w: image %s is empty", ErrInvalidShape, path)
	}

	out := NewTensor(h, w, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels; scale down to 0..255
			out.Set(float64(r>>8), y, x, 0)
			out.Set(float64(g>>8), y, x, 1)
			out.Set(float64(b>>8), y, x, 2)
		}
	}

	return out, nil
}

// TensorToImage converts a (height, width, channels) tensor with values in
// [0, 255] into an image. Values outside the range are clamped. A single
// channel is broadcast to gray; three channels map to RGB.
func TensorToImage(t *Tensor) (image.Image, error) {
	if t.Dims() != 3 {
		return nil, fmt.Errorf("%w: expected (height, width, channels), got %v",
			ErrInvalidShape, t.Shape())
	}

	h, w, c := t.shape[0], t.shape[1], t.shape[2]
	if c != 1 && c != 3 {
		return nil, fmt.Errorf("%w: expected 1 or 3 channels, got %d", ErrInvalidShape, c)
	}

	clamp := func(v float64) uint8 {
		return uint8(math.Max(0, math.Min(255, math.Round(v))))
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b uint8
			if c == 1 {
				v := clamp(t.At(y, x, 0))
				r, g, b = v, v, v
			} else {
				r = clamp(t.At(y, x, 0))
				g = clamp(t.At(y, x, 1))
				b = clamp(t.At(y, x, 2))
			}
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return img, nil
}

// SaveImagePNG writes a (height, width, channels) tensor to a PNG file.
func SaveImagePNG(path string, t *Tensor) error {
	img, err := TensorToImage(t)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}

	return nil
}
