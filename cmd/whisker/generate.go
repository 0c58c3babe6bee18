package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/whisker-ml/whisker/internal/generate"
	"github.com/whisker-ml/whisker/internal/model"
	"github.com/whisker-ml/whisker/internal/serialization"
	"github.com/whisker-ml/whisker/internal/tokenizer"
)

func generateCmd() *cli.Command {
	var (
		checkpointPath string
		vocabPath      string
		prompt         string
		encoding       string
		maxTokens      int64
		noEcho         bool

		logLevel  string
		logFormat string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "checkpoint",
			Aliases:     []string{"m"},
			Usage:       "path to a trained checkpoint",
			Required:    true,
			Destination: &checkpointPath,
		},
		&cli.StringFlag{
			Name:        "vocab",
			Usage:       "path to the vocabulary written by train",
			Destination: &vocabPath,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "prompt text",
			Required:    true,
			Destination: &prompt,
		},
		&cli.StringFlag{
			Name:        "encoding",
			Usage:       "use a tiktoken encoding (e.g. cl100k_base) instead of a vocabulary file",
			Destination: &encoding,
		},
		&cli.IntFlag{
			Name:        "max-tokens",
			Aliases:     []string{"n"},
			Usage:       "maximum number of tokens to generate",
			Value:       int64(generate.DefaultConfig().MaxTokens),
			Destination: &maxTokens,
		},
		&cli.BoolFlag{
			Name:        "no-echo",
			Usage:       "print only the generated continuation, without the prompt",
			Destination: &noEcho,
		},
	}
	flags = append(flags, logFlags(&logLevel, &logFormat)...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate text from a trained checkpoint",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			fc := loadFileConfig()
			applyInt64(c, fc.MaxTokens, "max-tokens", &maxTokens)
			log := newLogger(c, fc, logLevel, logFormat)

			tok, err := loadTokenizer(vocabPath, encoding)
			if err != nil {
				return err
			}

			m, err := serialization.LoadFile(checkpointPath, model.DefaultConfig())
			if err != nil {
				return err
			}
			log.Debug("checkpoint loaded",
				"path", checkpointPath,
				"vocab_size", m.Config().VocabSize,
				"hidden_dim", m.Config().HiddenDim)

			gen, err := generate.New(m, tok, m.Config().SeqLength, log)
			if err != nil {
				return err
			}

			cfg := generate.DefaultConfig()
			cfg.MaxTokens = int(maxTokens)
			cfg.EchoPrompt = !noEcho
			text, err := gen.Generate(prompt, cfg)
			if err != nil {
				return err
			}

			fmt.Println(text)
			return nil
		},
	}
}

// loadTokenizer resolves the tokenizer for generation: a word vocabulary
// file by default, or a tiktoken encoding when --encoding is given.
func loadTokenizer(vocabPath, encoding string) (tokenizer.Tokenizer, error) {
	switch {
	case encoding != "":
		return tokenizer.NewTikToken(encoding)
	case vocabPath != "":
		return tokenizer.LoadWordVocab(vocabPath)
	default:
		return nil, fmt.Errorf("either --vocab or --encoding is required")
	}
}
