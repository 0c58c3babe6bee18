package nn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/whisker-ml/whisker/internal/tensor"
)

func newTestLayer(t *testing.T, hidden int, seed int64) *TransformerLayer {
	t.Helper()
	l, err := NewTransformerLayer(LayerConfig{HiddenDim: hidden, NumHeads: 2}, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewTransformerLayer: %v", err)
	}
	return l
}

func TestLayerConfig_Validate(t *testing.T) {
	cases := []struct {
		name string
		cfg  LayerConfig
	}{
		{"zero hidden", LayerConfig{HiddenDim: 0, NumHeads: 1}},
		{"negative hidden", LayerConfig{HiddenDim: -4, NumHeads: 1}},
		{"zero heads", LayerConfig{HiddenDim: 4, NumHeads: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTransformerLayer(tc.cfg, rand.New(rand.NewSource(1))); err == nil {
				t.Errorf("NewTransformerLayer(%+v) succeeded, want error", tc.cfg)
			}
		})
	}
}

func TestForward_PreservesShape(t *testing.T) {
	layer := newTestLayer(t, 8, 1)

	for _, seqLen := range []int{1, 2, 5} {
		x := tensor.Zeros(tensor.Shape{seqLen, 8})
		x.Randn(1, rand.New(rand.NewSource(int64(seqLen))))

		out, err := layer.Forward(x)
		if err != nil {
			t.Fatalf("Forward(seqLen=%d): %v", seqLen, err)
		}
		if !out.Shape().Equal(tensor.Shape{seqLen, 8}) {
			t.Errorf("output shape %v, want (%d, 8)", out.Shape(), seqLen)
		}
		for i, v := range out.Data() {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("output element %d = %v", i, v)
			}
		}
	}
}

func TestForward_RejectsWrongHiddenDim(t *testing.T) {
	layer := newTestLayer(t, 8, 1)

	_, err := layer.Forward(tensor.Zeros(tensor.Shape{2, 4}))
	if !errors.Is(err, tensor.ErrShape) {
		t.Errorf("error = %v, want ErrShape", err)
	}

	_, err = layer.Forward(tensor.Zeros(tensor.Shape{8}))
	if !errors.Is(err, tensor.ErrShape) {
		t.Errorf("rank-1 input error = %v, want ErrShape", err)
	}
}

func TestForward_DeterministicForSeed(t *testing.T) {
	a := newTestLayer(t, 4, 42)
	b := newTestLayer(t, 4, 42)

	x, err := tensor.FromSlice([]float32{0.1, -0.2, 0.3, 0.4, -0.5, 0.6, 0.7, -0.8}, tensor.Shape{2, 4})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	outA, err := a.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	outB, err := b.Forward(x.Clone())
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	for i := range outA.Data() {
		if outA.At1(i) != outB.At1(i) {
			t.Fatalf("element %d differs between identically seeded layers: %v vs %v",
				i, outA.At1(i), outB.At1(i))
		}
	}
}

func TestForward_ResidualsPassThroughZeroWeights(t *testing.T) {
	layer := newTestLayer(t, 4, 1)

	// With every weight and bias zeroed, both sublayers contribute nothing
	// and only the residual connections remain: output == input.
	for _, w := range []*tensor.Tensor{
		layer.wq, layer.wk, layer.wv, layer.wo,
		layer.bq, layer.bk, layer.bv, layer.bo,
		layer.wff1, layer.bff1, layer.wff2, layer.bff2,
	} {
		w.Zero()
	}

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 4})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	out, err := layer.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for i := range x.Data() {
		if out.At1(i) != x.At1(i) {
			t.Errorf("element %d = %v, want residual passthrough %v", i, out.At1(i), x.At1(i))
		}
	}
}

func TestForward_DoesNotMutateInput(t *testing.T) {
	layer := newTestLayer(t, 4, 3)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	before := x.Clone()

	if _, err := layer.Forward(x); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for i := range x.Data() {
		if x.At1(i) != before.At1(i) {
			t.Errorf("Forward mutated input element %d: %v -> %v", i, before.At1(i), x.At1(i))
		}
	}
}
