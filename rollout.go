package main

import (
	"errors"
	"fmt"
	"math"
)

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file implements attention rollout: an estimate of how strongly each
// input patch influences a vision transformer's class token, obtained by
// composing the per-layer attention matrices across depth.
//
// INTENTION:
// Turn a stack of (heads, tokens, tokens) attention-weight tensors into a
// single (grid, grid) relevance mask that can be resized and overlaid on
// the original image.
//
// THE ALGORITHM (Abnar & Zuidema, 2020):
//   1. Average each layer's weights across heads -> one (T, T) matrix/layer
//   2. Add the identity matrix (residual connections carry information
//      around attention) and renormalize each row to sum to 1, keeping the
//      matrix row-stochastic
//   3. Fold from the last layer backward:
//      v = A_L @ A_{L-1} @ ... @ A_1
//   4. Row 0 of v is the class token's attention over all tokens. Drop the
//      class-token columns, reshape the rest into the (grid, grid) patch
//      layout, and normalize by the maximum
//
// Row-stochasticity is the load-bearing invariant: each matrix acts as a
// probability-like transition, so their product is a valid estimate of
// attention propagating from the output back to the input patches.
//
// RECOMMENDED READING:
// - "Quantifying Attention Flow in Transformers" by Abnar & Zuidema (2020)
//   https://arxiv.org/abs/2005.00928
// - "An Image is Worth 16x16 Words" by Dosovitskiy et al. (2020)
//   https://arxiv.org/abs/2010.11929 - the ViT token layout assumed here
//
// ===========================================================================

var (
	// ErrNonSquareGrid indicates a token count that does not decompose into
	// class tokens plus a square patch grid.
	ErrNonSquareGrid = errors.New("rollout: token count does not form a square grid")

	// ErrDegenerateMask indicates a rollout mask whose maximum is (near)
	// zero, so max-normalization would amplify noise or produce NaNs.
	// Callers that only care about relative relevance may ignore it; the
	// returned mask is all zeros.
	ErrDegenerateMask = errors.New("rollout: degenerate mask, maximum is near zero")
)

// degenerateEps is the threshold below which a mask maximum is treated as
// zero during normalization.
const degenerateEps = 1e-12

// GridSize derives the side length of the square patch grid from the token
// count. tokens = gridSize^2 + numClassTokens, so the spatial tokens must
// form a perfect square once the class tokens are removed.
func GridSize(tokens, numClassTokens int) (int, error) {
	if numClassTokens < 1 {
		return 0, fmt.Errorf("rollout: numClassTokens must be >= 1, got %d", numClassTokens)
	}
	if tokens <= numClassTokens {
		return 0, fmt.Errorf("%w: %d tokens with %d class tokens leaves no patches",
			ErrNonSquareGrid, tokens, numClassTokens)
	}

	spatial := tokens - numClassTokens
	grid := int(math.Sqrt(float64(spatial)))
	// Sqrt can land one off for large inputs; check the neighbors too.
	for _, g := range []int{grid, grid + 1} {
		if g*g == spatial {
			return g, nil
		}
	}

	return 0, fmt.Errorf("%w: %d spatial tokens", ErrNonSquareGrid, spatial)
}

// headMean averages a (heads, tokens, tokens) attention tensor over the
// head dimension, producing a (tokens, tokens) matrix.
func headMean(w *Tensor) *Tensor {
	heads, rows, cols := w.shape[0], w.shape[1], w.shape[2]
	out := NewTensor(rows, cols)

	inv := 1.0 / float64(heads)
	for h := 0; h < heads; h++ {
		base := h * rows * cols
		for i := 0; i < rows*cols; i++ {
			out.data[i] += w.data[base+i] * inv
		}
	}

	return out
}

// residualNormalize models the skip connection that bypasses attention:
// add the identity matrix, then renormalize each row to sum to 1 so the
// result stays row-stochastic.
func residualNormalize(m *Tensor) *Tensor {
	n := m.shape[0]
	out := Add(m, Identity(n))

	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += out.data[i*n+j]
		}
		for j := 0; j < n; j++ {
			out.data[i*n+j] /= sum
		}
	}

	return out
}

// AttentionRollout composes per-layer attention weights into a single
// (tokens, tokens) matrix describing attention flow from the output token
// back to the input tokens.
//
// weights holds one (heads, tokens, tokens) tensor per transformer layer,
// ordered from the first layer to the last. Inputs are not mutated.
func AttentionRollout(weights []*Tensor, numClassTokens int) (*Tensor, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no attention layers", ErrInvalidShape)
	}

	tokens := 0
	for l, w := range weights {
		if w.Dims() != 3 {
			return nil, fmt.Errorf("%w: layer %d has rank %d, want (heads, tokens, tokens)",
				ErrInvalidShape, l, w.Dims())
		}
		if w.shape[1] != w.shape[2] {
			return nil, fmt.Errorf("%w: layer %d attention is %dx%d, want square",
				ErrInvalidShape, l, w.shape[1], w.shape[2])
		}
		if l == 0 {
			tokens = w.shape[1]
		} else if w.shape[1] != tokens {
			return nil, fmt.Errorf("%w: layer %d has %d tokens, layer 0 has %d",
				ErrShapeMismatch, l, w.shape[1], tokens)
		}
	}

	// The grid check runs up front so a malformed token count fails before
	// any matmul work happens.
	if _, err := GridSize(tokens, numClassTokens); err != nil {
		return nil, err
	}

	// Head-average and residual-normalize each layer.
	layers := make([]*Tensor, len(weights))
	for l, w := range weights {
		layers[l] = residualNormalize(headMean(w))
	}

	// Fold from the last layer backward: v = A_L @ A_{L-1} @ ... @ A_1.
	v := layers[len(layers)-1]
	for n := 1; n < len(layers); n++ {
		v = MatMul(v, layers[len(layers)-1-n])
	}

	return v, nil
}

// RolloutMask extracts the (grid, grid) relevance mask from a composite
// rollout matrix: row 0 (the class token's attention), minus the
// class-token columns, normalized to its own maximum.
//
// When the mask maximum is near zero the returned mask is all zeros and
// the error is ErrDegenerateMask.
func RolloutMask(composite *Tensor, numClassTokens int) (*Tensor, error) {
	if composite.Dims() != 2 || composite.shape[0] != composite.shape[1] {
		return nil, fmt.Errorf("%w: composite must be a square matrix, got %v",
			ErrInvalidShape, composite.Shape())
	}

	tokens := composite.shape[0]
	grid, err := GridSize(tokens, numClassTokens)
	if err != nil {
		return nil, err
	}

	mask := NewTensor(grid, grid)
	maxVal := 0.0
	for i := 0; i < grid*grid; i++ {
		v := composite.At(0, numClassTokens+i)
		mask.data[i] = v
		if v > maxVal {
			maxVal = v
		}
	}

	if maxVal < degenerateEps {
		return NewTensor(grid, grid), ErrDegenerateMask
	}

	for i := range mask.data {
		mask.data[i] /= maxVal
	}

	return mask, nil
}

// BuildAttentionMap computes the full relevance overlay for an image:
// rollout -> mask -> bilinear resize to the image's pixel grid ->
// elementwise multiply against the image.
//
// weights holds one (heads, tokens, tokens) tensor per layer; img is
// (height, width, channels). The result has the image's shape. A
// degenerate mask propagates ErrDegenerateMask alongside the (all-black)
// overlay.
func BuildAttentionMap(weights []*Tensor, img *Tensor, numClassTokens int) (*Tensor, error) {
	if img.Dims() != 3 {
		return nil, fmt.Errorf("%w: image must be (height, width, channels), got %v",
			ErrInvalidShape, img.Shape())
	}

	composite, err := AttentionRollout(weights, numClassTokens)
	if err != nil {
		return nil, err
	}

	mask, maskErr := RolloutMask(composite, numClassTokens)
	if maskErr != nil && !errors.Is(maskErr, ErrDegenerateMask) {
		return nil, maskErr
	}

	h, w := img.shape[0], img.shape[1]
	resized := ResizeBilinear(mask, h, w)

	return ApplyMask(img, resized), maskErr
}
