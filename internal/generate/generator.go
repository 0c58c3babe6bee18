// Package generate turns a trained Whisker model into text.
package generate

import (
	"fmt"
	"slices"

	"github.com/whisker-ml/whisker/internal/logger"
	"github.com/whisker-ml/whisker/internal/tokenizer"
)

// Config configures text generation.
type Config struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// StopTokens are token IDs that end generation early. The stop token
	// itself is not emitted.
	StopTokens []int32

	// EchoPrompt includes the prompt in the returned text.
	EchoPrompt bool
}

// DefaultConfig returns sensible generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:  32,
		StopTokens: nil,
		EchoPrompt: true,
	}
}

// Predictor is the model surface generation needs: a greedy next-token
// choice for a context window.
type Predictor interface {
	Predict(tokenIDs []int32) (int32, error)
}

// Generator produces text autoregressively with greedy decoding.
type Generator struct {
	model  Predictor
	tok    tokenizer.Tokenizer
	window int
	log    logger.Logger
}

// New creates a Generator. window is the maximum context length fed to the
// model on each step, normally the model's sequence length.
func New(model Predictor, tok tokenizer.Tokenizer, window int, log logger.Logger) (*Generator, error) {
	if model == nil || tok == nil {
		return nil, fmt.Errorf("generate: model and tokenizer are required")
	}
	if window <= 0 {
		return nil, fmt.Errorf("generate: window must be positive, got %d", window)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Generator{model: model, tok: tok, window: window, log: log}, nil
}

// Generate extends prompt with up to cfg.MaxTokens greedily chosen tokens.
//
// Each step feeds the model the last window tokens of the running sequence.
// Generation stops early when the model emits the tokenizer's pad token or
// any of cfg.StopTokens.
func (g *Generator) Generate(prompt string, cfg Config) (string, error) {
	ids, err := g.tok.Encode(prompt)
	if err != nil {
		return "", fmt.Errorf("generate: encode prompt: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("generate: prompt produced no tokens")
	}

	promptLen := len(ids)
	reason := "max_tokens"

	for i := 0; i < cfg.MaxTokens; i++ {
		ctx := ids
		if len(ctx) > g.window {
			ctx = ctx[len(ctx)-g.window:]
		}

		next, err := g.model.Predict(ctx)
		if err != nil {
			return "", fmt.Errorf("generate: step %d: %w", i, err)
		}

		if next == g.tok.PadToken() || slices.Contains(cfg.StopTokens, next) {
			reason = "stop_token"
			break
		}
		ids = append(ids, next)
	}

	g.log.Debug("generation finished",
		"prompt_tokens", promptLen,
		"generated_tokens", len(ids)-promptLen,
		"reason", reason)

	out := ids
	if !cfg.EchoPrompt {
		out = ids[promptLen:]
	}
	if len(out) == 0 {
		return "", nil
	}

	text, err := g.tok.Decode(out)
	if err != nil {
		return "", fmt.Errorf("generate: decode: %w", err)
	}
	return text, nil
}
