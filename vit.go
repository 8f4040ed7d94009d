package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file implements a Vision Transformer (ViT) encoder - the model side
// of the attention-map pipeline. An input image is cut into fixed-size
// patches, each patch is linearly projected into an embedding, one or more
// learned class tokens are prepended, and the token sequence runs through a
// stack of pre-norm transformer blocks. The classification head reads the
// first class token.
//
// INTENTION:
// Provide the "trained model object" the rollout computer consumes: a model
// that can run a forward pass AND hand back the per-layer, per-head
// attention-weight tensors as named intermediate outputs. Attention here is
// bidirectional (no causal mask) - every patch may attend to every other
// patch, which is what makes the rollout mask meaningful spatially.
//
// Architecture (pre-norm, ViT-style):
//   tokens = [class; patches] + positions
//   x = x + Attention(LayerNorm(x))
//   x = x + MLP(LayerNorm(x))
//   logits = Head(LayerNorm(x)[0])
//
// ===========================================================================
// RECOMMENDED READING:
//
// - "An Image is Worth 16x16 Words: Transformers for Image Recognition at
//   Scale" by Dosovitskiy et al. (2020)
//   https://arxiv.org/abs/2010.11929
//
// - "Training data-efficient image transformers & distillation through
//   attention" by Touvron et al. (2020) - DeiT, the distilled variant
//   https://arxiv.org/abs/2012.12877
// ===========================================================================

// VisionConfig holds hyperparameters for the ViT encoder.
type VisionConfig struct {
	ImageSize      int // Input image side length (square images)
	PatchSize      int // Patch side length; ImageSize must be divisible by it
	NumChannels    int // Image channels (3 for RGB)
	EmbedDim       int // Embedding dimension (d_model)
	NumHeads       int // Number of attention heads
	NumLayers      int // Number of transformer blocks
	FFHidden       int // MLP hidden dimension (typically 4 * EmbedDim)
	NumClasses     int // Classifier output size
	NumClassTokens int // Non-spatial tokens prepended to the sequence (>= 1)
}

// DefaultVisionConfig returns a small ViT configuration for testing.
func DefaultVisionConfig() VisionConfig {
	return VisionConfig{
		ImageSize:      32,
		PatchSize:      8,
		NumChannels:    3,
		EmbedDim:       64,
		NumHeads:       4,
		NumLayers:      4,
		FFHidden:       256,
		NumClasses:     10,
		NumClassTokens: 1,
	}
}

// Validate checks the configuration for internal consistency.
func (c VisionConfig) Validate() error {
	switch {
	case c.ImageSize <= 0 || c.PatchSize <= 0:
		return fmt.Errorf("vit: image size %d and patch size %d must be positive", c.ImageSize, c.PatchSize)
	case c.ImageSize%c.PatchSize != 0:
		return fmt.Errorf("vit: image size %d not divisible by patch size %d", c.ImageSize, c.PatchSize)
	case c.NumChannels <= 0:
		return fmt.Errorf("vit: channels must be positive, got %d", c.NumChannels)
	case c.EmbedDim <= 0 || c.NumHeads <= 0 || c.EmbedDim%c.NumHeads != 0:
		return fmt.Errorf("vit: embed dim %d must be positive and divisible by heads %d", c.EmbedDim, c.NumHeads)
	case c.NumLayers <= 0:
		return fmt.Errorf("vit: need at least one layer, got %d", c.NumLayers)
	case c.FFHidden <= 0:
		return fmt.Errorf("vit: mlp hidden dim must be positive, got %d", c.FFHidden)
	case c.NumClasses <= 0:
		return fmt.Errorf("vit: classes must be positive, got %d", c.NumClasses)
	case c.NumClassTokens < 1:
		return fmt.Errorf("vit: need at least one class token, got %d", c.NumClassTokens)
	}
	return nil
}

// GridSize returns the patch-grid side length.
func (c VisionConfig) GridSize() int {
	return c.ImageSize / c.PatchSize
}

// NumPatches returns the number of spatial patch tokens.
func (c VisionConfig) NumPatches() int {
	g := c.GridSize()
	return g * g
}

// NumTokens returns the full sequence length: patches plus class tokens.
func (c VisionConfig) NumTokens() int {
	return c.NumPatches() + c.NumClassTokens
}

// PatchEmbed projects flattened image patches into the embedding space.
//
// Each PatchSize x PatchSize x NumChannels patch is flattened row-major and
// multiplied by a single weight matrix - the linear-projection equivalent
// of ViT's strided convolution.
type PatchEmbed struct {
	patchSize int
	channels  int
	weight    *Tensor // (patchSize*patchSize*channels, embedDim)
	bias      *Tensor // (embedDim,)
}

// NewPatchEmbed creates a patch embedding layer.
func NewPatchEmbed(patchSize, channels, embedDim int) *PatchEmbed {
	patchDim := patchSize * patchSize * channels

	weight := NewTensorRand(patchDim, embedDim)
	scale := math.Sqrt(2.0 / float64(patchDim))
	for i := range weight.data {
		weight.data[i] *= scale
	}

	return &PatchEmbed{
		patchSize: patchSize,
		channels:  channels,
		weight:    weight,
		bias:      NewTensor(embedDim),
	}
}

// Forward converts an image into patch embeddings.
// img: (height, width, channels) -> (numPatches, embedDim), with patches
// ordered row-major across the grid.
func (pe *PatchEmbed) Forward(img *Tensor) *Tensor {
	if img.Dims() != 3 {
		panic(fmt.Sprintf("vit: patch embed input must be (H, W, C), got %v", img.Shape()))
	}

	h, w, c := img.shape[0], img.shape[1], img.shape[2]
	if c != pe.channels {
		panic(fmt.Sprintf("vit: image has %d channels, patch embed expects %d", c, pe.channels))
	}
	if h%pe.patchSize != 0 || w%pe.patchSize != 0 {
		panic(fmt.Sprintf("vit: image %dx%d not divisible by patch size %d", h, w, pe.patchSize))
	}

	gridH, gridW := h/pe.patchSize, w/pe.patchSize
	patchDim := pe.patchSize * pe.patchSize * c

	// Flatten each patch row-major: (y, x, channel) within the patch.
	patches := NewTensor(gridH*gridW, patchDim)
	for gy := 0; gy < gridH; gy++ {
		for gx := 0; gx < gridW; gx++ {
			p := gy*gridW + gx
			idx := 0
			for py := 0; py < pe.patchSize; py++ {
				for px := 0; px < pe.patchSize; px++ {
					for ch := 0; ch < c; ch++ {
						patches.Set(img.At(gy*pe.patchSize+py, gx*pe.patchSize+px, ch), p, idx)
						idx++
					}
				}
			}
		}
	}

	return addBias(MatMul(patches, pe.weight), pe.bias)
}

// SelfAttention implements multi-head self-attention without a causal mask.
//
// Unlike an autoregressive decoder, every token may attend to every other
// token. Forward returns both the attended output and the raw attention
// weights, one (tokens, tokens) row-stochastic matrix per head - the
// intermediate output the rollout computer consumes.
type SelfAttention struct {
	embedDim int
	numHeads int
	headDim  int

	// Linear projections
	wq, wk, wv, wo *Tensor

	// Backend for accelerated operations (optional)
	backend Backend
}

// NewSelfAttention creates an attention layer.
func NewSelfAttention(embedDim, numHeads int) *SelfAttention {
	if embedDim%numHeads != 0 {
		panic(fmt.Sprintf("vit: embedDim (%d) must be divisible by numHeads (%d)", embedDim, numHeads))
	}

	headDim := embedDim / numHeads

	// Xavier/Glorot initialization scaled for transformers
	scale := math.Sqrt(2.0 / float64(embedDim))

	wq := NewTensorRand(embedDim, embedDim)
	wk := NewTensorRand(embedDim, embedDim)
	wv := NewTensorRand(embedDim, embedDim)
	wo := NewTensorRand(embedDim, embedDim)

	for i := range wq.data {
		wq.data[i] *= scale
		wk.data[i] *= scale
		wv.data[i] *= scale
		wo.data[i] *= scale
	}

	return &SelfAttention{
		embedDim: embedDim,
		numHeads: numHeads,
		headDim:  headDim,
		wq:       wq,
		wk:       wk,
		wv:       wv,
		wo:       wo,
	}
}

// Forward computes attention for input x.
// x shape: (tokens, embedDim)
// Returns the attended output (tokens, embedDim) and the attention weights
// (numHeads, tokens, tokens).
func (a *SelfAttention) Forward(x *Tensor) (*Tensor, *Tensor) {
	if len(x.shape) != 2 {
		panic("vit: attention input must be 2D (tokens, embedDim)")
	}

	tokens := x.shape[0]

	// Helper to use backend if available
	matmul := func(t1, t2 *Tensor) *Tensor {
		if a.backend != nil {
			result, err := a.backend.MatMul(t1, t2)
			if err == nil {
				return result
			}
		}
		return MatMul(t1, t2)
	}

	// Project to Q, K, V
	q := matmul(x, a.wq) // (tokens, embedDim)
	k := matmul(x, a.wk)
	v := matmul(x, a.wv)

	weights := NewTensor(a.numHeads, tokens, tokens)
	concat := NewTensor(tokens, a.embedDim)

	// Per-head scaled dot-product attention. Head h owns columns
	// [h*headDim, (h+1)*headDim) of the projections.
	scale := 1.0 / math.Sqrt(float64(a.headDim))
	for h := 0; h < a.numHeads; h++ {
		qh := headSlice(q, h, a.headDim)
		kh := headSlice(k, h, a.headDim)
		vh := headSlice(v, h, a.headDim)

		scores := Scale(matmul(qh, Transpose(kh)), scale) // (tokens, tokens)
		probs := Softmax(scores)

		// Record this head's weights for attention capture
		copy(weights.data[h*tokens*tokens:(h+1)*tokens*tokens], probs.data)

		ctx := matmul(probs, vh) // (tokens, headDim)
		for i := 0; i < tokens; i++ {
			for j := 0; j < a.headDim; j++ {
				concat.Set(ctx.At(i, j), i, h*a.headDim+j)
			}
		}
	}

	// Final projection
	return matmul(concat, a.wo), weights
}

// headSlice extracts one head's columns from a (tokens, embedDim) matrix.
func headSlice(x *Tensor, head, headDim int) *Tensor {
	tokens := x.shape[0]
	out := NewTensor(tokens, headDim)
	for i := 0; i < tokens; i++ {
		for j := 0; j < headDim; j++ {
			out.Set(x.At(i, head*headDim+j), i, j)
		}
	}
	return out
}

// LayerNorm implements layer normalization.
//
// Normalizes activations across features for each token independently:
//   y = γ * (x - μ) / σ + β
// where μ, σ are computed per-token, γ, β are learned parameters.
type LayerNorm struct {
	dim   int
	eps   float64
	gamma *Tensor // Scale parameter
	beta  *Tensor // Shift parameter
}

// NewLayerNorm creates a layer normalization layer.
func NewLayerNorm(dim int) *LayerNorm {
	gamma := NewTensor(dim)
	beta := NewTensor(dim)

	// Initialize: gamma=1, beta=0 (identity transform)
	for i := 0; i < dim; i++ {
		gamma.data[i] = 1.0
	}

	return &LayerNorm{
		dim:   dim,
		eps:   1e-5,
		gamma: gamma,
		beta:  beta,
	}
}

// Forward applies layer normalization.
// x shape: (tokens, features)
func (ln *LayerNorm) Forward(x *Tensor) *Tensor {
	if len(x.shape) != 2 {
		panic("vit: LayerNorm input must be 2D")
	}

	tokens, features := x.shape[0], x.shape[1]
	out := NewTensor(tokens, features)

	// Normalize each token independently
	for i := 0; i < tokens; i++ {
		mean := 0.0
		for j := 0; j < features; j++ {
			mean += x.At(i, j)
		}
		mean /= float64(features)

		variance := 0.0
		for j := 0; j < features; j++ {
			diff := x.At(i, j) - mean
			variance += diff * diff
		}
		variance /= float64(features)

		std := math.Sqrt(variance + ln.eps)
		for j := 0; j < features; j++ {
			normalized := (x.At(i, j) - mean) / std
			out.Set(normalized*ln.gamma.data[j]+ln.beta.data[j], i, j)
		}
	}

	return out
}

// MLP implements the position-wise feed-forward network:
//   MLP(x) = GELU(x @ W1 + b1) @ W2 + b2
//
// The hidden dimension is typically 4x the embedding dimension.
type MLP struct {
	w1, b1 *Tensor
	w2, b2 *Tensor

	// Backend for accelerated operations (optional)
	backend Backend
}

// NewMLP creates a feed-forward layer.
func NewMLP(embedDim, hiddenDim int) *MLP {
	return &MLP{
		w1: NewTensorRand(embedDim, hiddenDim),
		b1: NewTensor(hiddenDim),
		w2: NewTensorRand(hiddenDim, embedDim),
		b2: NewTensor(embedDim),
	}
}

// Forward applies the feed-forward network.
// x shape: (tokens, embedDim)
func (m *MLP) Forward(x *Tensor) *Tensor {
	matmul := func(t1, t2 *Tensor) *Tensor {
		if m.backend != nil {
			result, err := m.backend.MatMul(t1, t2)
			if err == nil {
				return result
			}
		}
		return MatMul(t1, t2)
	}

	hidden := matmul(x, m.w1)
	hidden = addBias(hidden, m.b1)
	hidden = GELU(hidden)

	output := matmul(hidden, m.w2)
	return addBias(output, m.b2)
}

// EncoderBlock combines attention, layer norm, and MLP layers.
//
// Architecture (pre-norm):
//   x = x + Attention(LayerNorm(x))
//   x = x + MLP(LayerNorm(x))
type EncoderBlock struct {
	attn *SelfAttention
	ln1  *LayerNorm
	mlp  *MLP
	ln2  *LayerNorm
}

// NewEncoderBlock creates an encoder block.
func NewEncoderBlock(config VisionConfig) *EncoderBlock {
	return &EncoderBlock{
		attn: NewSelfAttention(config.EmbedDim, config.NumHeads),
		ln1:  NewLayerNorm(config.EmbedDim),
		mlp:  NewMLP(config.EmbedDim, config.FFHidden),
		ln2:  NewLayerNorm(config.EmbedDim),
	}
}

// Forward applies the block and returns the transformed sequence plus the
// block's attention weights (numHeads, tokens, tokens).
func (b *EncoderBlock) Forward(x *Tensor) (*Tensor, *Tensor) {
	normed := b.ln1.Forward(x)
	attended, weights := b.attn.Forward(normed)
	x = Add(x, attended)

	normed = b.ln2.Forward(x)
	x = Add(x, b.mlp.Forward(normed))

	return x, weights
}

// ViT implements a Vision Transformer classifier.
//
// Architecture:
//   1. Patch embedding + class token(s) + positional embeddings
//   2. Stack of encoder blocks
//   3. Final layer norm
//   4. Linear head reading the first class token
type ViT struct {
	config VisionConfig

	patchEmbed  *PatchEmbed
	classTokens *Tensor // (numClassTokens, embedDim)
	posEmbed    *Tensor // (numTokens, embedDim)

	blocks []*EncoderBlock

	lnFinal *LayerNorm
	head    *Tensor // (embedDim, numClasses)

	// Backend for accelerated matrix operations.
	// If nil, uses the built-in MatMul from tensor.go.
	backend Backend
}

// NewViT creates a new ViT model with random weights.
// Panics on an invalid configuration - construction with bad
// hyperparameters is a programmer error.
func NewViT(config VisionConfig) *ViT {
	if err := config.Validate(); err != nil {
		panic(err.Error())
	}

	classTokens := NewTensorRand(config.NumClassTokens, config.EmbedDim)
	posEmbed := NewTensorRand(config.NumTokens(), config.EmbedDim)

	blocks := make([]*EncoderBlock, config.NumLayers)
	for i := range blocks {
		blocks[i] = NewEncoderBlock(config)
	}

	return &ViT{
		config:      config,
		patchEmbed:  NewPatchEmbed(config.PatchSize, config.NumChannels, config.EmbedDim),
		classTokens: classTokens,
		posEmbed:    posEmbed,
		blocks:      blocks,
		lnFinal:     NewLayerNorm(config.EmbedDim),
		head:        NewTensorRand(config.EmbedDim, config.NumClasses),
	}
}

// Config returns the model's configuration.
func (v *ViT) Config() VisionConfig {
	return v.config
}

// SetBackend configures the backend for accelerated matrix operations.
func (v *ViT) SetBackend(backend Backend) {
	v.backend = backend

	// Propagate to all encoder blocks
	for _, block := range v.blocks {
		block.attn.backend = backend
		block.mlp.backend = backend
	}
}

// matmul performs matrix multiplication using backend if available.
func (v *ViT) matmul(a, b *Tensor) *Tensor {
	if v.backend != nil {
		result, err := v.backend.MatMul(a, b)
		if err == nil {
			return result
		}
	}
	return MatMul(a, b)
}

// embed builds the token sequence for an image: class tokens, then patch
// embeddings, plus positional embeddings.
func (v *ViT) embed(img *Tensor) *Tensor {
	patches := v.patchEmbed.Forward(img) // (numPatches, embedDim)

	tokens := v.config.NumTokens()
	x := NewTensor(tokens, v.config.EmbedDim)

	for i := 0; i < v.config.NumClassTokens; i++ {
		for j := 0; j < v.config.EmbedDim; j++ {
			x.Set(v.classTokens.At(i, j)+v.posEmbed.At(i, j), i, j)
		}
	}
	for p := 0; p < v.config.NumPatches(); p++ {
		row := v.config.NumClassTokens + p
		for j := 0; j < v.config.EmbedDim; j++ {
			x.Set(patches.At(p, j)+v.posEmbed.At(row, j), row, j)
		}
	}

	return x
}

// Forward computes class logits for an image.
// img: (height, width, channels) with dims matching the configuration.
// Returns: (numClasses,) logits.
func (v *ViT) Forward(img *Tensor) *Tensor {
	logits, _ := v.ForwardWithAttention(img)
	return logits
}

// ForwardWithAttention computes class logits and captures the attention
// weights from every encoder block: one (numHeads, tokens, tokens) tensor
// per layer, ordered first layer to last.
//
// This is the model's "named intermediate outputs" surface - the rollout
// computer consumes exactly these tensors.
func (v *ViT) ForwardWithAttention(img *Tensor) (*Tensor, []*Tensor) {
	if img.Dims() != 3 || img.shape[0] != v.config.ImageSize ||
		img.shape[1] != v.config.ImageSize || img.shape[2] != v.config.NumChannels {
		panic(fmt.Sprintf("vit: image must be (%d, %d, %d), got %v",
			v.config.ImageSize, v.config.ImageSize, v.config.NumChannels, img.Shape()))
	}

	x := v.embed(img)

	attention := make([]*Tensor, 0, len(v.blocks))
	for _, block := range v.blocks {
		var weights *Tensor
		x, weights = block.Forward(x)
		attention = append(attention, weights)
	}

	x = v.lnFinal.Forward(x)

	// Classify from the first class token
	cls := NewTensor(1, v.config.EmbedDim)
	for j := 0; j < v.config.EmbedDim; j++ {
		cls.Set(x.At(0, j), 0, j)
	}
	logits := v.matmul(cls, v.head)

	return logits.Reshape(v.config.NumClasses), attention
}

// AttentionMap runs the model on an image and returns the attention-rollout
// overlay: a tensor with the image's shape whose values are the image
// modulated by per-pixel relevance.
func (v *ViT) AttentionMap(img *Tensor) (*Tensor, error) {
	_, weights := v.ForwardWithAttention(img)
	return BuildAttentionMap(weights, img, v.config.NumClassTokens)
}

// Summary returns a human-readable description of the model in the spirit
// of Keras' model.summary(): one line per component with parameter counts.
func (v *ViT) Summary() string {
	var sb strings.Builder

	countParams := func(ts ...*Tensor) int {
		total := 0
		for _, t := range ts {
			total += t.Size()
		}
		return total
	}

	patchDim := v.config.PatchSize * v.config.PatchSize * v.config.NumChannels
	total := 0

	fmt.Fprintf(&sb, "ViT (image %dx%dx%d, %d patches of %dx%d, %d class token(s))\n",
		v.config.ImageSize, v.config.ImageSize, v.config.NumChannels,
		v.config.NumPatches(), v.config.PatchSize, v.config.PatchSize, v.config.NumClassTokens)
	fmt.Fprintf(&sb, "%-24s %-20s %12s\n", "Layer", "Output Shape", "Params")
	fmt.Fprintf(&sb, "%s\n", strings.Repeat("-", 58))

	n := countParams(v.patchEmbed.weight, v.patchEmbed.bias)
	total += n
	fmt.Fprintf(&sb, "%-24s %-20s %12d\n", "patch_embed",
		fmt.Sprintf("(%d, %d)", v.config.NumPatches(), v.config.EmbedDim), n)

	n = countParams(v.classTokens, v.posEmbed)
	total += n
	fmt.Fprintf(&sb, "%-24s %-20s %12d\n", "embeddings",
		fmt.Sprintf("(%d, %d)", v.config.NumTokens(), v.config.EmbedDim), n)

	for i, block := range v.blocks {
		n = countParams(
			block.attn.wq, block.attn.wk, block.attn.wv, block.attn.wo,
			block.ln1.gamma, block.ln1.beta,
			block.mlp.w1, block.mlp.b1, block.mlp.w2, block.mlp.b2,
			block.ln2.gamma, block.ln2.beta,
		)
		total += n
		fmt.Fprintf(&sb, "%-24s %-20s %12d\n", fmt.Sprintf("encoder_block_%d", i),
			fmt.Sprintf("(%d, %d)", v.config.NumTokens(), v.config.EmbedDim), n)
	}

	n = countParams(v.lnFinal.gamma, v.lnFinal.beta, v.head)
	total += n
	fmt.Fprintf(&sb, "%-24s %-20s %12d\n", "head",
		fmt.Sprintf("(%d,)", v.config.NumClasses), n)

	fmt.Fprintf(&sb, "%s\n", strings.Repeat("-", 58))
	fmt.Fprintf(&sb, "Total params: %d (patch dim %d, %d heads, %d layers)\n",
		total, patchDim, v.config.NumHeads, v.config.NumLayers)

	return sb.String()
}

// ===========================================================================
// HELPERS
// ===========================================================================

// addBias adds a bias vector to each row of a 2D tensor.
// x: (rows, features), bias: (features,)
func addBias(x, bias *Tensor) *Tensor {
	if len(x.shape) != 2 {
		panic("addBias: x must be 2D")
	}
	if len(bias.shape) != 1 {
		panic("addBias: bias must be 1D")
	}
	if x.shape[1] != bias.shape[0] {
		panic(fmt.Sprintf("addBias: dimension mismatch %d vs %d", x.shape[1], bias.shape[0]))
	}

	out := x.Clone()
	rows, features := x.shape[0], x.shape[1]

	for i := 0; i < rows; i++ {
		for j := 0; j < features; j++ {
			out.Set(out.At(i, j)+bias.data[j], i, j)
		}
	}

	return out
}

// ===========================================================================
// Model Serialization
// ===========================================================================
//
// Simple binary format for saving/loading ViT models.
//
// Format:
//   1. Header with config (JSON), prefixed by its uint32 length
//   2. All tensor data in fixed order (binary little-endian float64)
//
// This is a naive format - just tensor dumps. Production systems would use
// SafeTensors or GGUF, but for a tool this size a simple format is clearest.
// ===========================================================================

// Save writes the model to a file.
func (v *ViT) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// Write config as JSON header
	configJSON, err := json.Marshal(v.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	headerLen := uint32(len(configJSON))
	if err := binary.Write(f, binary.LittleEndian, headerLen); err != nil {
		return fmt.Errorf("failed to write header length: %w", err)
	}
	if _, err := f.Write(configJSON); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	for i, t := range v.tensors() {
		if err := binary.Write(f, binary.LittleEndian, t.data); err != nil {
			return fmt.Errorf("failed to write tensor %d: %w", i, err)
		}
	}

	return nil
}

// LoadViT reads a model from a file.
func LoadViT(filename string) (*ViT, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Read header length
	var headerLen uint32
	if err := binary.Read(f, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("failed to read header length: %w", err)
	}

	// Read config JSON
	configJSON := make([]byte, headerLen)
	if _, err := io.ReadFull(f, configJSON); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config VisionConfig
	if err := json.Unmarshal(configJSON, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", filename, err)
	}

	model := NewViT(config)
	for i, t := range model.tensors() {
		if err := binary.Read(f, binary.LittleEndian, t.data); err != nil {
			return nil, fmt.Errorf("failed to read tensor %d: %w", i, err)
		}
	}

	return model, nil
}

// tensors returns every parameter tensor in serialization order.
// Save and LoadViT both iterate this list, so the order is the format.
func (v *ViT) tensors() []*Tensor {
	ts := []*Tensor{
		v.patchEmbed.weight, v.patchEmbed.bias,
		v.classTokens, v.posEmbed,
	}

	for _, block := range v.blocks {
		ts = append(ts,
			block.attn.wq, block.attn.wk, block.attn.wv, block.attn.wo,
			block.ln1.gamma, block.ln1.beta,
			block.mlp.w1, block.mlp.b1, block.mlp.w2, block.mlp.b2,
			block.ln2.gamma, block.ln2.beta,
		)
	}

	ts = append(ts, v.lnFinal.gamma, v.lnFinal.beta, v.head)
	return ts
}
