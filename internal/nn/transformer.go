// Package nn implements the transformer block used by the Whisker model.
package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/whisker-ml/whisker/internal/tensor"
)

// weightStd is the standard deviation for Gaussian weight initialization.
const weightStd = 0.01

// LayerConfig defines the dimensions of a TransformerLayer.
type LayerConfig struct {
	// HiddenDim is the model dimension; all projections are HiddenDim square
	// and the feed-forward sublayer expands to 4*HiddenDim.
	HiddenDim int

	// NumHeads is accepted for configuration compatibility but does not
	// change the computation: attention is evaluated as a single head over
	// the full HiddenDim, scaled by 1/sqrt(HiddenDim). Q/K/V are not split
	// into per-head subspaces.
	NumHeads int
}

// Validate checks the configuration.
func (c LayerConfig) Validate() error {
	if c.HiddenDim <= 0 {
		return fmt.Errorf("nn: hidden dim must be positive, got %d", c.HiddenDim)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("nn: num heads must be positive, got %d", c.NumHeads)
	}
	return nil
}

// TransformerLayer is one self-attention + feed-forward block with residual
// connections.
//
// The layer is purely functional after construction: Forward never mutates
// the weights, and the training step does not update them either (only the
// model's embedding table and output projection learn). This is a faithful
// property of the reference design, not an omission.
type TransformerLayer struct {
	cfg LayerConfig

	wq, wk, wv, wo *tensor.Tensor // (hidden, hidden) projections
	bq, bk, bv, bo *tensor.Tensor // (hidden) biases

	wff1 *tensor.Tensor // (hidden, 4*hidden)
	bff1 *tensor.Tensor // (4*hidden)
	wff2 *tensor.Tensor // (4*hidden, hidden)
	bff2 *tensor.Tensor // (hidden)
}

// NewTransformerLayer creates a layer with Gaussian(0, 0.01) projection and
// feed-forward weights and zero biases, drawn from rng.
//
// The draw order is fixed (Wq, Wk, Wv, Wo, Wff1, Wff2), so a layer built
// from an identically seeded generator is reproducible bit-for-bit.
func NewTransformerLayer(cfg LayerConfig, rng *rand.Rand) (*TransformerLayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := cfg.HiddenDim
	ff := 4 * h

	l := &TransformerLayer{
		cfg:  cfg,
		wq:   tensor.Zeros(tensor.Shape{h, h}),
		wk:   tensor.Zeros(tensor.Shape{h, h}),
		wv:   tensor.Zeros(tensor.Shape{h, h}),
		wo:   tensor.Zeros(tensor.Shape{h, h}),
		bq:   tensor.Zeros(tensor.Shape{h}),
		bk:   tensor.Zeros(tensor.Shape{h}),
		bv:   tensor.Zeros(tensor.Shape{h}),
		bo:   tensor.Zeros(tensor.Shape{h}),
		wff1: tensor.Zeros(tensor.Shape{h, ff}),
		bff1: tensor.Zeros(tensor.Shape{ff}),
		wff2: tensor.Zeros(tensor.Shape{ff, h}),
		bff2: tensor.Zeros(tensor.Shape{h}),
	}

	l.wq.Randn(weightStd, rng)
	l.wk.Randn(weightStd, rng)
	l.wv.Randn(weightStd, rng)
	l.wo.Randn(weightStd, rng)
	l.wff1.Randn(weightStd, rng)
	l.wff2.Randn(weightStd, rng)

	return l, nil
}

// HiddenDim returns the layer's model dimension.
func (l *TransformerLayer) HiddenDim() int {
	return l.cfg.HiddenDim
}

// Forward runs the block on x of shape (seqLen, hiddenDim) and returns a
// tensor of the same shape.
//
// The computation is:
//  1. Q, K, V projections with bias.
//  2. Scores = Q @ K^T scaled by 1/sqrt(hiddenDim).
//  3. Row-wise stable softmax over the scores.
//  4. Context = Scores @ V.
//  5. Output projection with bias, plus the residual x.
//  6. Feed-forward (hidden -> 4*hidden, ReLU, 4*hidden -> hidden) with
//     biases, plus the post-attention residual.
func (l *TransformerLayer) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	h := l.cfg.HiddenDim
	if x.Rank() != 2 || x.Shape()[1] != h {
		return nil, fmt.Errorf("%w: layer input is %v, want (seqLen, %d)",
			tensor.ErrShape, x.Shape(), h)
	}
	seqLen := x.Shape()[0]

	q := tensor.Zeros(tensor.Shape{seqLen, h})
	k := tensor.Zeros(tensor.Shape{seqLen, h})
	v := tensor.Zeros(tensor.Shape{seqLen, h})

	type projection struct {
		out          *tensor.Tensor
		weight, bias *tensor.Tensor
	}
	for _, p := range []projection{{q, l.wq, l.bq}, {k, l.wk, l.bk}, {v, l.wv, l.bv}} {
		if err := tensor.MatMul(p.out, x, p.weight); err != nil {
			return nil, err
		}
		if err := tensor.AddBias(p.out, p.bias); err != nil {
			return nil, err
		}
	}

	scores := tensor.Zeros(tensor.Shape{seqLen, seqLen})
	if err := tensor.MatMul(scores, q, k.Transpose()); err != nil {
		return nil, err
	}
	scale := float32(1 / math.Sqrt(float64(h)))
	for i, s := range scores.Data() {
		scores.Data()[i] = s * scale
	}
	if err := tensor.Softmax(scores); err != nil {
		return nil, err
	}

	ctx := tensor.Zeros(tensor.Shape{seqLen, h})
	if err := tensor.MatMul(ctx, scores, v); err != nil {
		return nil, err
	}

	proj := tensor.Zeros(tensor.Shape{seqLen, h})
	if err := tensor.MatMul(proj, ctx, l.wo); err != nil {
		return nil, err
	}
	if err := tensor.AddBias(proj, l.bo); err != nil {
		return nil, err
	}

	attnOut := tensor.Zeros(tensor.Shape{seqLen, h})
	if err := tensor.Add(attnOut, proj, x); err != nil {
		return nil, err
	}

	ff1 := tensor.Zeros(tensor.Shape{seqLen, 4 * h})
	if err := tensor.MatMul(ff1, attnOut, l.wff1); err != nil {
		return nil, err
	}
	if err := tensor.AddBias(ff1, l.bff1); err != nil {
		return nil, err
	}
	tensor.ReLU(ff1)

	ff2 := tensor.Zeros(tensor.Shape{seqLen, h})
	if err := tensor.MatMul(ff2, ff1, l.wff2); err != nil {
		return nil, err
	}
	if err := tensor.AddBias(ff2, l.bff2); err != nil {
		return nil, err
	}

	out := tensor.Zeros(tensor.Shape{seqLen, h})
	if err := tensor.Add(out, ff2, attnOut); err != nil {
		return nil, err
	}
	return out, nil
}
