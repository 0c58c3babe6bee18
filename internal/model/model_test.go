package model

import (
	"errors"
	"math"
	"testing"

	"github.com/whisker-ml/whisker/internal/tensor"
)

func testConfig() Config {
	return Config{
		VocabSize:    5,
		HiddenDim:    4,
		NumHeads:     2,
		NumLayers:    1,
		SeqLength:    8,
		LearningRate: 0.01,
		Seed:         42,
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestConfig_Validate(t *testing.T) {
	mutations := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero vocab", func(c *Config) { c.VocabSize = 0 }},
		{"zero hidden", func(c *Config) { c.HiddenDim = 0 }},
		{"zero heads", func(c *Config) { c.NumHeads = 0 }},
		{"zero layers", func(c *Config) { c.NumLayers = 0 }},
		{"zero seq length", func(c *Config) { c.SeqLength = 0 }},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
	}

	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mut(&cfg)
			if _, err := New(cfg); err == nil {
				t.Errorf("New(%+v) succeeded, want error", cfg)
			}
		})
	}
}

func TestForward_ProbabilityDistribution(t *testing.T) {
	m := newTestModel(t)

	probs, err := m.Forward([]int32{2, 3})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if !probs.Shape().Equal(tensor.Shape{1, 5}) {
		t.Fatalf("output shape %v, want (1, 5)", probs.Shape())
	}

	var sum float32
	for _, p := range probs.Data() {
		if p < 0 || p > 1 {
			t.Errorf("probability %v outside [0, 1]", p)
		}
		sum += p
	}
	if math.Abs(float64(sum)-1) > 1e-5 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
}

func TestForward_TokenOutOfRange(t *testing.T) {
	m := newTestModel(t)

	for _, id := range []int32{-1, 5, 100} {
		if _, err := m.Forward([]int32{id}); !errors.Is(err, tensor.ErrRange) {
			t.Errorf("Forward([%d]) error = %v, want ErrRange", id, err)
		}
	}
}

func TestForward_EmptySequence(t *testing.T) {
	m := newTestModel(t)

	if _, err := m.Forward(nil); !errors.Is(err, tensor.ErrShape) {
		t.Errorf("Forward(nil) error = %v, want ErrShape", err)
	}
}

func TestForward_ReproducibleAcrossModels(t *testing.T) {
	a := newTestModel(t)
	b := newTestModel(t)

	outA, err := a.Forward([]int32{1, 2, 3})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	outB, err := b.Forward([]int32{1, 2, 3})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	for i := range outA.Data() {
		if outA.At1(i) != outB.At1(i) {
			t.Fatalf("element %d differs between identically configured models: %v vs %v",
				i, outA.At1(i), outB.At1(i))
		}
	}
}

func TestPredict_TiesResolveToIndexZero(t *testing.T) {
	m := newTestModel(t)

	// With a zeroed output projection every logit is 0, the softmax is
	// uniform, and strict greater-than comparison keeps the first index.
	m.output.Zero()

	got, err := m.Predict([]int32{1, 2})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 0 {
		t.Errorf("Predict = %d, want 0 on all-equal probabilities", got)
	}
}

func TestTrainStep_LossFiniteNonNegative(t *testing.T) {
	m := newTestModel(t)

	loss, err := m.TrainStep([]int32{2, 3}, 4)
	if err != nil {
		t.Fatalf("TrainStep: %v", err)
	}
	if loss < 0 || math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0) {
		t.Errorf("loss = %v, want finite non-negative", loss)
	}
	maxLoss := -float32(math.Log(1e-7))
	if loss > maxLoss {
		t.Errorf("loss = %v exceeds floor bound %v", loss, maxLoss)
	}
}

func TestTrainStep_ExactUpdateFormulas(t *testing.T) {
	m := newTestModel(t)
	cfg := m.Config()

	tokens := []int32{2, 3}
	targetID := int32(4)

	// Forward does not mutate weights, so this prediction matches the one
	// TrainStep computes internally.
	pred, err := m.Forward(tokens)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	embBefore := m.embedding.Clone()
	outBefore := m.output.Clone()

	loss, err := m.TrainStep(tokens, targetID)
	if err != nil {
		t.Fatalf("TrainStep: %v", err)
	}

	// Output projection: every column v moves by lr*(pred[v]-target[v])*0.01
	// in all hidden rows.
	for v := 0; v < cfg.VocabSize; v++ {
		var tgt float32
		if int32(v) == targetID {
			tgt = 1
		}
		delta := cfg.LearningRate * (pred.At1(v) - tgt) * 0.01
		for r := 0; r < cfg.HiddenDim; r++ {
			want := outBefore.At(r, v) - delta
			if got := m.output.At(r, v); got != want {
				t.Errorf("output[%d][%d] = %v, want %v", r, v, got, want)
			}
		}
	}

	// Embedding: rows 2 and 3 move by lr*loss*0.0001 per dimension; every
	// other row is untouched.
	embDelta := cfg.LearningRate * loss * 0.0001
	for row := 0; row < cfg.VocabSize; row++ {
		updated := row == 2 || row == 3
		for d := 0; d < cfg.HiddenDim; d++ {
			want := embBefore.At(row, d)
			if updated {
				want -= embDelta
			}
			if got := m.embedding.At(row, d); got != want {
				t.Errorf("embedding[%d][%d] = %v, want %v", row, d, got, want)
			}
		}
	}
}

func TestTrainStep_RepeatedTokenUpdatedOnce(t *testing.T) {
	m := newTestModel(t)

	embBefore := m.embedding.Clone()
	loss, err := m.TrainStep([]int32{2, 2, 2}, 4)
	if err != nil {
		t.Fatalf("TrainStep: %v", err)
	}

	embDelta := m.cfg.LearningRate * loss * 0.0001
	for d := 0; d < m.cfg.HiddenDim; d++ {
		want := embBefore.At(2, d) - embDelta
		if got := m.embedding.At(2, d); got != want {
			t.Errorf("embedding[2][%d] = %v, want single update %v", d, got, want)
		}
	}
}

func TestTrainStep_TargetOutOfRange(t *testing.T) {
	m := newTestModel(t)

	embBefore := m.embedding.Clone()

	// An out-of-range target becomes an all-zero one-hot: the loss is zero
	// and the embedding update (scaled by loss) is a no-op, while the
	// output projection still moves by lr*pred[v]*0.01.
	loss, err := m.TrainStep([]int32{1}, 99)
	if err != nil {
		t.Fatalf("TrainStep: %v", err)
	}
	if loss != 0 {
		t.Errorf("loss = %v, want 0 for all-zero target", loss)
	}
	for i := range embBefore.Data() {
		if m.embedding.At1(i) != embBefore.At1(i) {
			t.Errorf("embedding element %d changed despite zero loss", i)
		}
	}
}
