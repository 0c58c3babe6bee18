// Package train drives the heuristic training loop over a text corpus.
package train

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/whisker-ml/whisker/internal/logger"
	"github.com/whisker-ml/whisker/internal/model"
	"github.com/whisker-ml/whisker/internal/tokenizer"
)

// Config configures a training run.
type Config struct {
	// Epochs is the number of passes over the sampled examples.
	Epochs int

	// StepsPerEpoch is the number of training steps per epoch.
	StepsPerEpoch int

	// Seed seeds example selection. Runs with the same seed, corpus, and
	// model visit the same examples in the same order.
	Seed int64
}

// DefaultConfig returns training defaults matched to the default model size.
func DefaultConfig() Config {
	return Config{
		Epochs:        10,
		StepsPerEpoch: 100,
		Seed:          42,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("train: epochs must be positive, got %d", c.Epochs)
	}
	if c.StepsPerEpoch <= 0 {
		return fmt.Errorf("train: steps per epoch must be positive, got %d", c.StepsPerEpoch)
	}
	return nil
}

// Result summarizes a completed run.
type Result struct {
	// EpochLosses is the mean loss of each epoch, in order.
	EpochLosses []float32

	// Steps is the total number of training steps taken.
	Steps int
}

// FinalLoss returns the mean loss of the last epoch.
func (r *Result) FinalLoss() float32 {
	if len(r.EpochLosses) == 0 {
		return 0
	}
	return r.EpochLosses[len(r.EpochLosses)-1]
}

// Trainer samples (context window, next token) pairs from a corpus and
// applies the model's heuristic update.
type Trainer struct {
	model *model.Model
	log   logger.Logger

	// encoded holds the corpus lines as token ids. Lines shorter than two
	// tokens carry no next-token example and are dropped up front.
	encoded [][]int32
}

// New creates a Trainer over the given corpus lines.
func New(m *model.Model, tok tokenizer.Tokenizer, lines []string, log logger.Logger) (*Trainer, error) {
	if m == nil || tok == nil {
		return nil, fmt.Errorf("train: model and tokenizer are required")
	}
	if log == nil {
		log = logger.Discard()
	}

	encoded := make([][]int32, 0, len(lines))
	for i, line := range lines {
		ids, err := tok.Encode(line)
		if err != nil {
			return nil, fmt.Errorf("train: encode line %d: %w", i, err)
		}
		if len(ids) < 2 {
			continue
		}
		encoded = append(encoded, ids)
	}
	if len(encoded) == 0 {
		return nil, fmt.Errorf("train: corpus has no line with at least two tokens")
	}

	return &Trainer{model: m, log: log, encoded: encoded}, nil
}

// Run trains for cfg.Epochs epochs of cfg.StepsPerEpoch steps each.
//
// Each step picks a random corpus line and a random target position within
// it, and feeds the model the window of up to SeqLength tokens preceding the
// target. The run stops early if ctx is cancelled, returning the context
// error alongside the epochs completed so far.
func (t *Trainer) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	seqLen := t.model.Config().SeqLength
	result := &Result{EpochLosses: make([]float32, 0, cfg.Epochs)}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		var epochLoss float32

		for step := 0; step < cfg.StepsPerEpoch; step++ {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			window, target := t.sample(rng, seqLen)
			loss, err := t.model.TrainStep(window, target)
			if err != nil {
				return result, fmt.Errorf("train: epoch %d step %d: %w", epoch, step, err)
			}
			epochLoss += loss
			result.Steps++
		}

		mean := epochLoss / float32(cfg.StepsPerEpoch)
		result.EpochLosses = append(result.EpochLosses, mean)
		t.log.Info("epoch complete",
			"epoch", epoch+1,
			"epochs", cfg.Epochs,
			"mean_loss", mean)
	}

	return result, nil
}

// sample picks a training example: a random line, a random target position
// past the first token, and the window of up to seqLen preceding tokens.
func (t *Trainer) sample(rng *rand.Rand, seqLen int) (window []int32, target int32) {
	ids := t.encoded[rng.Intn(len(t.encoded))]
	pos := 1 + rng.Intn(len(ids)-1)

	start := pos - seqLen
	if start < 0 {
		start = 0
	}
	return ids[start:pos], ids[pos]
}
