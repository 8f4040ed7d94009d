package main

import (
	"math"
	"testing"
)

// TestResizeBilinearDims verifies that output dims always match the target
// regardless of source size.
func TestResizeBilinearDims(t *testing.T) {
	for _, tc := range []struct{ srcH, srcW, outH, outW int }{
		{2, 2, 4, 4},
		{2, 2, 224, 224},
		{3, 3, 17, 31},
		{14, 14, 224, 224},
		{8, 8, 4, 4}, // downsample
		{1, 1, 10, 10},
	} {
		src := NewTensor(tc.srcH, tc.srcW)
		out := ResizeBilinear(src, tc.outH, tc.outW)
		shape := out.Shape()
		if shape[0] != tc.outH || shape[1] != tc.outW {
			t.Errorf("resize %dx%d -> %dx%d produced %v",
				tc.srcH, tc.srcW, tc.outH, tc.outW, shape)
		}
	}
}

// TestResizeBilinearIdentity verifies that same-size resize is exact.
func TestResizeBilinearIdentity(t *testing.T) {
	src := NewTensor(3, 3)
	for i := range src.data {
		src.data[i] = float64(i)
	}

	out := ResizeBilinear(src, 3, 3)
	for i := range src.data {
		if out.data[i] != src.data[i] {
			t.Errorf("identity resize changed value at %d: %g vs %g", i, out.data[i], src.data[i])
		}
	}
}

// TestResizeBilinearConstant verifies that a constant mask stays constant
// under any scaling (interpolation of equal values is the value).
func TestResizeBilinearConstant(t *testing.T) {
	src := NewTensor(2, 2)
	for i := range src.data {
		src.data[i] = 0.7
	}

	out := ResizeBilinear(src, 9, 5)
	for i, v := range out.data {
		if math.Abs(v-0.7) > 1e-12 {
			t.Errorf("constant resize drifted at %d: %g", i, v)
		}
	}
}

// TestResizeBilinearInterpolation checks hand-computed values for a 2x2
// gradient upsampled to 4x4 with half-pixel alignment.
func TestResizeBilinearInterpolation(t *testing.T) {
	// src:
	//   0 1
	//   2 3
	src := NewTensor(2, 2)
	src.data = []float64{0, 1, 2, 3}

	out := ResizeBilinear(src, 4, 4)

	// With half-pixel centers, output rows sample src y at
	// -0.25, 0.25, 0.75, 1.25 (clamped), i.e. fy = 0, 0.25, 0.75, 0(clamped);
	// columns likewise. Corner stays exact, interior blends.
	if out.At(0, 0) != 0 {
		t.Errorf("corner [0,0] = %g, want 0", out.At(0, 0))
	}
	if out.At(3, 3) != 3 {
		t.Errorf("corner [3,3] = %g, want 3", out.At(3, 3))
	}

	// Row 1 (fy=0.25): column 1 (fx=0.25):
	// top = 0*(0.75) + 1*0.25 = 0.25; bottom = 2*0.75 + 3*0.25 = 2.25
	// value = 0.25*0.75 + 2.25*0.25 = 0.75
	if got := out.At(1, 1); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("out[1,1] = %g, want 0.75", got)
	}

	// Row 2 (fy=0.75), column 2 (fx=0.75):
	// top = 0*0.25 + 1*0.75 = 0.75; bottom = 2*0.25 + 3*0.75 = 2.75
	// value = 0.75*0.25 + 2.75*0.75 = 2.25
	if got := out.At(2, 2); math.Abs(got-2.25) > 1e-12 {
		t.Errorf("out[2,2] = %g, want 2.25", got)
	}
}

// TestApplyMask verifies per-channel broadcasting of the mask.
func TestApplyMask(t *testing.T) {
	img := NewTensor(2, 2, 2)
	for i := range img.data {
		img.data[i] = 100
	}

	mask := NewTensor(2, 2)
	mask.data = []float64{0, 0.5, 1.0, 0.25}

	out := ApplyMask(img, mask)

	expected := []float64{0, 50, 100, 25}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := expected[i*2+j]
			for c := 0; c < 2; c++ {
				if got := out.At(i, j, c); got != want {
					t.Errorf("out[%d,%d,%d] = %g, want %g", i, j, c, got, want)
				}
			}
		}
	}

	// Inputs untouched
	if img.At(0, 0, 0) != 100 || mask.At(0, 0) != 0 {
		t.Error("ApplyMask mutated an input")
	}
}
