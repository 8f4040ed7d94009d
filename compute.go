package main

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file implements parallel execution of matrix multiplication using
// goroutines. The rollout fold and the encoder forward pass both reduce to
// chains of (tokens x tokens) and (tokens x embed) matmuls, so this is the
// one place where throwing cores at the problem pays off.
//
// INTENTION:
// Expose CPU parallelism as a configurable option. Let the user choose
// between single-threaded (deterministic, debuggable) and parallel (faster)
// modes at runtime. Small matrices stay on the single-threaded path because
// goroutine overhead dominates below ~64 rows.
//
// Parallelization strategy:
// - Divide output rows among workers
// - Each worker computes a contiguous block of rows
// - Minimizes false sharing (workers write to different cache lines)
//
// Worker count defaults to the physical core count reported by
// github.com/klauspost/cpuid - SMT siblings share the FP units that
// dominate matmul, so logical cores add scheduling overhead without
// adding throughput.
//
// ===========================================================================

// ComputeConfig controls parallelization behavior for tensor operations.
//
// This allows switching between single-threaded (deterministic, easier
// debugging) and multi-threaded (faster) execution modes.
type ComputeConfig struct {
	// Parallel enables multi-threaded execution of tensor operations.
	Parallel bool

	// NumWorkers specifies the number of worker goroutines to use.
	// If 0, defaults to the physical core count (falling back to
	// runtime.NumCPU when detection fails). Only used when Parallel is true.
	NumWorkers int

	// MinSizeForParallel specifies the minimum matrix dimension
	// before parallelization is used. Small matrices don't benefit
	// from parallelization due to goroutine overhead.
	MinSizeForParallel int
}

// DefaultComputeConfig returns a sensible default configuration.
func DefaultComputeConfig() ComputeConfig {
	return ComputeConfig{
		Parallel:           true,
		NumWorkers:         0, // Physical cores
		MinSizeForParallel: 64,
	}
}

// SingleThreadedConfig returns a configuration for single-threaded execution.
func SingleThreadedConfig() ComputeConfig {
	return ComputeConfig{
		Parallel:           false,
		NumWorkers:         1,
		MinSizeForParallel: 0,
	}
}

// numWorkers returns the actual number of workers to use.
func (c ComputeConfig) numWorkers() int {
	if !c.Parallel {
		return 1
	}
	if c.NumWorkers > 0 {
		return c.NumWorkers
	}
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// shouldParallelize determines if an operation should use parallelization
// based on the problem size.
func (c ComputeConfig) shouldParallelize(size int) bool {
	return c.Parallel && size >= c.MinSizeForParallel
}

// Global compute configuration (can be overridden per operation)
var globalComputeConfig = DefaultComputeConfig()

// SetGlobalComputeConfig sets the global compute configuration.
func SetGlobalComputeConfig(cfg ComputeConfig) {
	globalComputeConfig = cfg
}

// GetGlobalComputeConfig returns the current global compute configuration.
func GetGlobalComputeConfig() ComputeConfig {
	return globalComputeConfig
}

// MatMulWithConfig performs matrix multiplication C = A @ B with an
// explicit compute configuration.
func MatMulWithConfig(a, b *Tensor, cfg ComputeConfig) *Tensor {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		panic("tensor: MatMul requires 2D tensors")
	}

	m, k1 := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]

	if k1 != k2 {
		panic("tensor: incompatible dimensions for matmul")
	}
	k := k1

	out := NewTensor(m, n)

	// Use single-threaded path for small matrices
	if !cfg.shouldParallelize(m) || !cfg.shouldParallelize(n) {
		matmulWorker(a, b, out, 0, m, n, k)
		return out
	}

	// Parallel execution
	numWorkers := cfg.numWorkers()
	rowsPerWorker := (m + numWorkers - 1) / numWorkers // Ceiling division

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > m {
			endRow = m
		}

		if startRow >= m {
			wg.Done()
			continue
		}

		go func(start, end int) {
			defer wg.Done()
			matmulWorker(a, b, out, start, end, n, k)
		}(startRow, endRow)
	}

	wg.Wait()
	return out
}

// matmulWorker computes a subset of output rows.
func matmulWorker(a, b, out *Tensor, startRow, endRow, n, k int) {
	for i := startRow; i < endRow; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			// Inner loop: dot product of row i from A with column j from B
			for kk := 0; kk < k; kk++ {
				sum += a.data[i*k+kk] * b.data[kk*n+j]
			}
			out.data[i*n+j] = sum
		}
	}
}
