// Package model implements the Whisker language model: an embedding table,
// a stack of transformer layers, and an output projection, together with
// the heuristic training step.
package model

import (
	"fmt"
	"math/rand"

	"github.com/whisker-ml/whisker/internal/nn"
	"github.com/whisker-ml/whisker/internal/tensor"
)

const (
	// weightStd is the standard deviation for Gaussian weight initialization.
	weightStd = 0.01

	// outputUpdateScale damps the output-projection update relative to the
	// raw prediction error.
	outputUpdateScale = 0.01

	// embeddingUpdateScale damps the loss-scaled embedding update.
	embeddingUpdateScale = 0.0001
)

// Config defines a model's dimensions and training hyperparameters.
// All dimensions are fixed after construction (or after a checkpoint load).
type Config struct {
	VocabSize    int     `yaml:"vocab_size"`
	HiddenDim    int     `yaml:"hidden_dim"`
	NumHeads     int     `yaml:"num_heads"`
	NumLayers    int     `yaml:"num_layers"`
	SeqLength    int     `yaml:"seq_length"`
	LearningRate float32 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`
}

// DefaultConfig returns a configuration small enough to train on a laptop
// corpus in seconds.
func DefaultConfig() Config {
	return Config{
		VocabSize:    256,
		HiddenDim:    64,
		NumHeads:     4,
		NumLayers:    2,
		SeqLength:    16,
		LearningRate: 0.01,
		Seed:         42,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("model: vocab size must be positive, got %d", c.VocabSize)
	}
	if c.HiddenDim <= 0 {
		return fmt.Errorf("model: hidden dim must be positive, got %d", c.HiddenDim)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("model: num heads must be positive, got %d", c.NumHeads)
	}
	if c.NumLayers <= 0 {
		return fmt.Errorf("model: num layers must be positive, got %d", c.NumLayers)
	}
	if c.SeqLength <= 0 {
		return fmt.Errorf("model: seq length must be positive, got %d", c.SeqLength)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("model: learning rate must be positive, got %v", c.LearningRate)
	}
	return nil
}

// Model is the tiny autoregressive language model.
//
// Training mutates only the embedding table and the output projection; the
// transformer layers keep their initial weights for the model's lifetime.
// That asymmetry is the documented behavior of this design, not a defect to
// repair: a true backpropagation path would change every numeric output.
type Model struct {
	cfg Config
	rng *rand.Rand

	embedding *tensor.Tensor // (vocabSize, hiddenDim)
	layers    []*nn.TransformerLayer
	output    *tensor.Tensor // (hiddenDim, vocabSize)
}

// New creates a model from cfg with all weights drawn from a generator
// seeded with cfg.Seed.
//
// The model owns its generator, so two models built from the same config
// are identical bit-for-bit regardless of what else the process has done
// with math/rand. The draw order is embedding, layers in stack order, then
// the output projection.
func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &Model{
		cfg:       cfg,
		rng:       rng,
		embedding: tensor.Zeros(tensor.Shape{cfg.VocabSize, cfg.HiddenDim}),
		layers:    make([]*nn.TransformerLayer, cfg.NumLayers),
		output:    tensor.Zeros(tensor.Shape{cfg.HiddenDim, cfg.VocabSize}),
	}
	m.embedding.Randn(weightStd, rng)

	layerCfg := nn.LayerConfig{HiddenDim: cfg.HiddenDim, NumHeads: cfg.NumHeads}
	for i := range m.layers {
		layer, err := nn.NewTransformerLayer(layerCfg, rng)
		if err != nil {
			return nil, fmt.Errorf("model: layer %d: %w", i, err)
		}
		m.layers[i] = layer
	}

	m.output.Randn(weightStd, rng)
	return m, nil
}

// Config returns the model's configuration.
func (m *Model) Config() Config {
	return m.cfg
}

// Embedding returns the embedding table (vocabSize, hiddenDim).
// The tensor is owned by the model; the checkpoint codec reads and
// overwrites it in place.
func (m *Model) Embedding() *tensor.Tensor {
	return m.embedding
}

// OutputWeight returns the output projection (hiddenDim, vocabSize).
func (m *Model) OutputWeight() *tensor.Tensor {
	return m.output
}

// Forward maps a token sequence to a (1, vocabSize) probability
// distribution over the next token.
//
// Each token id is bounds-checked against the vocabulary; an out-of-range
// id fails with a range error instead of reading past the embedding table.
func (m *Model) Forward(tokenIDs []int32) (*tensor.Tensor, error) {
	if len(tokenIDs) == 0 {
		return nil, fmt.Errorf("%w: empty token sequence", tensor.ErrShape)
	}
	for _, id := range tokenIDs {
		if id < 0 || int(id) >= m.cfg.VocabSize {
			return nil, fmt.Errorf("%w: token id %d outside vocabulary [0, %d)",
				tensor.ErrRange, id, m.cfg.VocabSize)
		}
	}

	seqLen := len(tokenIDs)
	h := m.cfg.HiddenDim

	x := tensor.Zeros(tensor.Shape{seqLen, h})
	for i, id := range tokenIDs {
		copy(x.Row(i), m.embedding.Row(int(id)))
	}

	for i, layer := range m.layers {
		out, err := layer.Forward(x)
		if err != nil {
			return nil, fmt.Errorf("model: layer %d: %w", i, err)
		}
		x = out
	}

	// Only the final position's hidden state feeds the output projection.
	last := tensor.Zeros(tensor.Shape{1, h})
	copy(last.Row(0), x.Row(seqLen-1))

	probs := tensor.Zeros(tensor.Shape{1, m.cfg.VocabSize})
	if err := tensor.MatMul(probs, last, m.output); err != nil {
		return nil, err
	}
	if err := tensor.Softmax(probs); err != nil {
		return nil, err
	}
	return probs, nil
}

// TrainStep runs one forward pass and applies the heuristic update,
// returning the scalar cross-entropy loss.
//
// The update is an approximation, not backpropagation:
//   - every output-projection column v moves by
//     -learningRate * (pred[v] - target[v]) * 0.01 in all hidden rows;
//   - the embedding row of every unique input token moves by
//     -learningRate * loss * 0.0001 in all dimensions.
//
// Transformer-layer weights are never updated. A targetID outside the
// vocabulary yields an all-zero target row (zero loss contribution), not an
// error.
func (m *Model) TrainStep(tokenIDs []int32, targetID int32) (float32, error) {
	pred, err := m.Forward(tokenIDs)
	if err != nil {
		return 0, err
	}

	target := tensor.Zeros(tensor.Shape{1, m.cfg.VocabSize})
	if targetID >= 0 && int(targetID) < m.cfg.VocabSize {
		target.Set1(int(targetID), 1)
	}

	loss, err := tensor.CrossEntropyLoss(pred, target)
	if err != nil {
		return 0, err
	}

	lr := m.cfg.LearningRate
	vocab := m.cfg.VocabSize

	outData := m.output.Data()
	for v := 0; v < vocab; v++ {
		delta := lr * (pred.At1(v) - target.At1(v)) * outputUpdateScale
		for r := 0; r < m.cfg.HiddenDim; r++ {
			outData[r*vocab+v] -= delta
		}
	}

	embDelta := lr * loss * embeddingUpdateScale
	seen := make(map[int32]struct{}, len(tokenIDs))
	for _, id := range tokenIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if int(id) >= m.cfg.VocabSize {
			continue
		}
		row := m.embedding.Row(int(id))
		for d := range row {
			row[d] -= embDelta
		}
	}

	return loss, nil
}

// Predict returns the vocabulary index with the highest probability for the
// next token. Ties resolve to the lowest index, since the comparison is
// strictly greater-than.
func (m *Model) Predict(tokenIDs []int32) (int32, error) {
	probs, err := m.Forward(tokenIDs)
	if err != nil {
		return 0, err
	}

	best := int32(0)
	bestProb := probs.At1(0)
	for v := 1; v < m.cfg.VocabSize; v++ {
		if p := probs.At1(v); p > bestProb {
			bestProb = p
			best = int32(v)
		}
	}
	return best, nil
}
