package main

import (
	"math"
	"math/rand"
	"testing"
)

// TestParallelMatMulMatchesSingleThreaded verifies that parallel and
// single-threaded execution produce identical results.
func TestParallelMatMulMatchesSingleThreaded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	a := NewTensor(100, 70)
	b := NewTensor(70, 90)
	for i := range a.data {
		a.data[i] = rng.NormFloat64()
	}
	for i := range b.data {
		b.data[i] = rng.NormFloat64()
	}

	single := MatMulWithConfig(a, b, SingleThreadedConfig())
	parallel := MatMulWithConfig(a, b, ComputeConfig{
		Parallel:           true,
		NumWorkers:         3,
		MinSizeForParallel: 1,
	})

	for i := range single.data {
		if math.Abs(single.data[i]-parallel.data[i]) > 1e-12 {
			t.Fatalf("parallel result differs at flat index %d: %g vs %g",
				i, single.data[i], parallel.data[i])
		}
	}
}

// TestMatMulSmallStaysSingleThreaded covers the cutoff path (result
// correctness, not scheduling - the output must be identical either way).
func TestMatMulSmallStaysSingleThreaded(t *testing.T) {
	a := NewTensor(2, 2)
	b := NewTensor(2, 2)
	a.data = []float64{1, 2, 3, 4}
	b.data = []float64{5, 6, 7, 8}

	out := MatMulWithConfig(a, b, DefaultComputeConfig())

	expected := []float64{19, 22, 43, 50}
	for i, want := range expected {
		if out.data[i] != want {
			t.Errorf("out[%d] = %f, want %f", i, out.data[i], want)
		}
	}
}

// TestComputeConfigWorkers checks worker-count resolution.
func TestComputeConfigWorkers(t *testing.T) {
	if n := SingleThreadedConfig().numWorkers(); n != 1 {
		t.Errorf("single-threaded config should use 1 worker, got %d", n)
	}

	cfg := ComputeConfig{Parallel: true, NumWorkers: 5}
	if n := cfg.numWorkers(); n != 5 {
		t.Errorf("explicit worker count ignored, got %d", n)
	}

	// Zero workers resolves to something positive (physical cores or NumCPU)
	cfg = ComputeConfig{Parallel: true, NumWorkers: 0}
	if n := cfg.numWorkers(); n < 1 {
		t.Errorf("default worker count must be >= 1, got %d", n)
	}
}

// TestShouldParallelize checks the size cutoff.
func TestShouldParallelize(t *testing.T) {
	cfg := ComputeConfig{Parallel: true, MinSizeForParallel: 64}

	if cfg.shouldParallelize(63) {
		t.Error("should not parallelize below the cutoff")
	}
	if !cfg.shouldParallelize(64) {
		t.Error("should parallelize at the cutoff")
	}
	if SingleThreadedConfig().shouldParallelize(1000) {
		t.Error("single-threaded config should never parallelize")
	}
}
