package main

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file defines the pluggable matmul backend. The encoder keeps a
// Backend slot; when it is nil, the built-in goroutine matmul from
// compute.go runs. GonumBackend routes the same operation through
// gonum's BLAS-backed mat.Dense, which wins once matrices grow past a
// few hundred rows.
//
// The interface is deliberately tiny: matmul is >90% of forward-pass time,
// so it is the only operation worth delegating.
//
// ===========================================================================

// Backend performs accelerated matrix multiplication.
// Implementations must not mutate their inputs.
type Backend interface {
	MatMul(a, b *Tensor) (*Tensor, error)
}

// GonumBackend implements Backend on top of gonum's dense matrices.
// The zero value is ready to use.
type GonumBackend struct{}

// MatMul computes C = A @ B via gonum. A must be (M, K), B must be (K, N).
func (GonumBackend) MatMul(a, b *Tensor) (*Tensor, error) {
	if a.Dims() != 2 || b.Dims() != 2 {
		return nil, fmt.Errorf("%w: backend matmul requires 2D tensors, got %dD and %dD",
			ErrInvalidShape, a.Dims(), b.Dims())
	}

	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		return nil, fmt.Errorf("%w: cannot multiply (%d,%d) by (%d,%d)",
			ErrShapeMismatch, m, k, k2, n)
	}

	// mat.NewDense aliases the slices; copy so the caller's tensors
	// stay untouched no matter what gonum does internally.
	ad := make([]float64, len(a.data))
	copy(ad, a.data)
	bd := make([]float64, len(b.data))
	copy(bd, b.data)

	var c mat.Dense
	c.Mul(mat.NewDense(m, k, ad), mat.NewDense(k2, n, bd))

	out := NewTensor(m, n)
	copy(out.data, c.RawMatrix().Data)
	return out, nil
}
