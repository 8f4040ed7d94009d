package main

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
)

// testVisionConfig returns a tiny ViT: 8x8 images, 4x4 patches -> 2x2 grid,
// 5 tokens with one class token.
func testVisionConfig() VisionConfig {
	return VisionConfig{
		ImageSize:      8,
		PatchSize:      4,
		NumChannels:    3,
		EmbedDim:       8,
		NumHeads:       2,
		NumLayers:      2,
		FFHidden:       16,
		NumClasses:     4,
		NumClassTokens: 1,
	}
}

// testImage builds a deterministic (size, size, 3) input.
func testImage(size int) *Tensor {
	img := NewTensor(size, size, 3)
	for i := range img.data {
		img.data[i] = float64(i%251) / 250.0
	}
	return img
}

// TestVisionConfigValidate exercises the configuration checks.
func TestVisionConfigValidate(t *testing.T) {
	if err := DefaultVisionConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}

	bad := testVisionConfig()
	bad.PatchSize = 3 // 8 % 3 != 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for indivisible patch size")
	}

	bad = testVisionConfig()
	bad.NumHeads = 3 // 8 % 3 != 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for indivisible head count")
	}

	bad = testVisionConfig()
	bad.NumClassTokens = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero class tokens")
	}
}

// TestVisionConfigGeometry checks token accounting.
func TestVisionConfigGeometry(t *testing.T) {
	cfg := testVisionConfig()

	if g := cfg.GridSize(); g != 2 {
		t.Errorf("grid size = %d, want 2", g)
	}
	if n := cfg.NumPatches(); n != 4 {
		t.Errorf("patches = %d, want 4", n)
	}
	if n := cfg.NumTokens(); n != 5 {
		t.Errorf("tokens = %d, want 5", n)
	}
}

// TestViTForwardShape checks the logits shape.
func TestViTForwardShape(t *testing.T) {
	model := NewViT(testVisionConfig())
	logits := model.Forward(testImage(8))

	shape := logits.Shape()
	if len(shape) != 1 || shape[0] != 4 {
		t.Errorf("logits shape = %v, want [4]", shape)
	}
}

// TestViTAttentionCapture verifies the named-intermediate-outputs surface:
// one tensor per layer, (heads, tokens, tokens), every row a probability
// distribution.
func TestViTAttentionCapture(t *testing.T) {
	cfg := testVisionConfig()
	model := NewViT(cfg)

	_, weights := model.ForwardWithAttention(testImage(8))

	if len(weights) != cfg.NumLayers {
		t.Fatalf("captured %d layers, want %d", len(weights), cfg.NumLayers)
	}

	for l, w := range weights {
		shape := w.Shape()
		if len(shape) != 3 || shape[0] != cfg.NumHeads || shape[1] != cfg.NumTokens() || shape[2] != cfg.NumTokens() {
			t.Fatalf("layer %d weights shape = %v, want [%d %d %d]",
				l, shape, cfg.NumHeads, cfg.NumTokens(), cfg.NumTokens())
		}

		// Softmax rows must sum to 1
		for h := 0; h < shape[0]; h++ {
			for i := 0; i < shape[1]; i++ {
				sum := 0.0
				for j := 0; j < shape[2]; j++ {
					sum += w.At(h, i, j)
				}
				if math.Abs(sum-1.0) > 1e-9 {
					t.Errorf("layer %d head %d row %d sums to %g", l, h, i, sum)
				}
			}
		}
	}
}

// TestViTForwardDeterministic verifies that repeated forward passes agree.
func TestViTForwardDeterministic(t *testing.T) {
	model := NewViT(testVisionConfig())
	img := testImage(8)

	a := model.Forward(img)
	b := model.Forward(img)

	for i := range a.data {
		if a.data[i] != b.data[i] {
			t.Fatalf("forward pass is not deterministic at logit %d", i)
		}
	}
}

// TestViTAttentionMap runs the model-level rollout convenience.
func TestViTAttentionMap(t *testing.T) {
	model := NewViT(testVisionConfig())
	img := testImage(8)

	overlay, err := model.AttentionMap(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shape := overlay.Shape()
	if shape[0] != 8 || shape[1] != 8 || shape[2] != 3 {
		t.Errorf("overlay shape = %v, want [8 8 3]", shape)
	}

	// Overlay is image * mask with mask in [0, 1]: never exceeds the image
	for i := range overlay.data {
		if overlay.data[i] < 0 || overlay.data[i] > img.data[i]+1e-9 {
			t.Fatalf("overlay[%d] = %g outside [0, img=%g]", i, overlay.data[i], img.data[i])
		}
	}
}

// TestViTGonumBackendAgrees verifies the backend produces the same logits
// as the built-in matmul.
func TestViTGonumBackendAgrees(t *testing.T) {
	model := NewViT(testVisionConfig())
	img := testImage(8)

	plain := model.Forward(img)

	model.SetBackend(GonumBackend{})
	accelerated := model.Forward(img)

	for i := range plain.data {
		if math.Abs(plain.data[i]-accelerated.data[i]) > 1e-9 {
			t.Errorf("logit %d differs: %g vs %g", i, plain.data[i], accelerated.data[i])
		}
	}
}

// TestViTSaveLoadRoundTrip verifies binary serialization.
func TestViTSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vit.bin")

	model := NewViT(testVisionConfig())
	if err := model.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadViT(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Config() != model.Config() {
		t.Fatalf("config round trip mismatch: %+v vs %+v", loaded.Config(), model.Config())
	}

	img := testImage(8)
	want := model.Forward(img)
	got := loaded.Forward(img)

	for i := range want.data {
		if want.data[i] != got.data[i] {
			t.Fatalf("logit %d differs after round trip: %g vs %g", i, want.data[i], got.data[i])
		}
	}
}

// TestLoadViTRejectsBadFile verifies error paths.
func TestLoadViTRejectsBadFile(t *testing.T) {
	if _, err := LoadViT(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestViTSummary sanity-checks the layer table.
func TestViTSummary(t *testing.T) {
	model := NewViT(testVisionConfig())
	summary := model.Summary()

	for _, want := range []string{"patch_embed", "encoder_block_0", "encoder_block_1", "head", "Total params"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
