package main

import (
	"fmt"
	"math"
)

// ResizeBilinear upsamples (or downsamples) a 2D mask to the given output
// dimensions using bilinear interpolation.
//
// Sample positions use the half-pixel convention: output pixel centers map
// to src coordinates (i+0.5)*scale-0.5, clamped at the borders. This is the
// same alignment OpenCV uses for its default linear resize, so masks land
// on the image the way the reference visualizations do.
func ResizeBilinear(src *Tensor, outH, outW int) *Tensor {
	if src.Dims() != 2 {
		panic(fmt.Sprintf("resize: source must be 2D, got %v", src.Shape()))
	}
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("resize: output dims must be positive, got %dx%d", outH, outW))
	}

	srcH, srcW := src.shape[0], src.shape[1]
	out := NewTensor(outH, outW)

	scaleY := float64(srcH) / float64(outH)
	scaleX := float64(srcW) / float64(outW)

	for i := 0; i < outH; i++ {
		sy := (float64(i)+0.5)*scaleY - 0.5
		y0 := int(math.Floor(sy))
		fy := sy - float64(y0)
		y1 := y0 + 1

		// Clamp to borders
		if y0 < 0 {
			y0, y1, fy = 0, 0, 0
		}
		if y1 >= srcH {
			y1 = srcH - 1
			if y0 > y1 {
				y0 = y1
			}
		}

		for j := 0; j < outW; j++ {
			sx := (float64(j)+0.5)*scaleX - 0.5
			x0 := int(math.Floor(sx))
			fx := sx - float64(x0)
			x1 := x0 + 1

			if x0 < 0 {
				x0, x1, fx = 0, 0, 0
			}
			if x1 >= srcW {
				x1 = srcW - 1
				if x0 > x1 {
					x0 = x1
				}
			}

			top := src.At(y0, x0)*(1-fx) + src.At(y0, x1)*fx
			bottom := src.At(y1, x0)*(1-fx) + src.At(y1, x1)*fx
			out.Set(top*(1-fy)+bottom*fy, i, j)
		}
	}

	return out
}

// ApplyMask multiplies an image by a relevance mask, broadcasting the mask
// across channels: out[i,j,c] = img[i,j,c] * mask[i,j].
//
// img must be (height, width, channels), mask must be (height, width).
// Neither input is mutated.
func ApplyMask(img, mask *Tensor) *Tensor {
	if img.Dims() != 3 {
		panic(fmt.Sprintf("resize: image must be 3D, got %v", img.Shape()))
	}
	if mask.Dims() != 2 {
		panic(fmt.Sprintf("resize: mask must be 2D, got %v", mask.Shape()))
	}
	if img.shape[0] != mask.shape[0] || img.shape[1] != mask.shape[1] {
		panic(fmt.Sprintf("resize: image %v and mask %v disagree on spatial dims",
			img.Shape(), mask.Shape()))
	}

	h, w, c := img.shape[0], img.shape[1], img.shape[2]
	out := NewTensor(h, w, c)

	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			m := mask.At(i, j)
			for ch := 0; ch < c; ch++ {
				out.Set(img.At(i, j, ch)*m, i, j, ch)
			}
		}
	}

	return out
}
