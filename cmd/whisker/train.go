package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/whisker-ml/whisker/internal/corpus"
	"github.com/whisker-ml/whisker/internal/model"
	"github.com/whisker-ml/whisker/internal/serialization"
	"github.com/whisker-ml/whisker/internal/tokenizer"
	"github.com/whisker-ml/whisker/internal/train"
)

func trainCmd() *cli.Command {
	var (
		corpusPath     string
		checkpointPath string
		vocabPath      string

		vocabSize    int64
		hiddenDim    int64
		numHeads     int64
		numLayers    int64
		seqLength    int64
		learningRate float64
		seed         int64

		epochs        int64
		stepsPerEpoch int64

		logLevel  string
		logFormat string
	)

	modelDefaults := model.DefaultConfig()
	trainDefaults := train.DefaultConfig()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus",
			Aliases:     []string{"c"},
			Usage:       "path to the training text, one example per line",
			Required:    true,
			Destination: &corpusPath,
		},
		&cli.StringFlag{
			Name:        "checkpoint",
			Aliases:     []string{"o"},
			Usage:       "path to write the trained checkpoint",
			Value:       "whisker.ckpt",
			Destination: &checkpointPath,
		},
		&cli.StringFlag{
			Name:        "vocab",
			Usage:       "path to write the vocabulary",
			Value:       "whisker.vocab.json",
			Destination: &vocabPath,
		},
		&cli.IntFlag{
			Name:        "vocab-size",
			Usage:       "maximum vocabulary size (0 = unlimited)",
			Value:       int64(modelDefaults.VocabSize),
			Destination: &vocabSize,
		},
		&cli.IntFlag{
			Name:        "hidden-dim",
			Usage:       "hidden dimension",
			Value:       int64(modelDefaults.HiddenDim),
			Destination: &hiddenDim,
		},
		&cli.IntFlag{
			Name:        "num-heads",
			Usage:       "number of attention heads",
			Value:       int64(modelDefaults.NumHeads),
			Destination: &numHeads,
		},
		&cli.IntFlag{
			Name:        "num-layers",
			Usage:       "number of transformer layers",
			Value:       int64(modelDefaults.NumLayers),
			Destination: &numLayers,
		},
		&cli.IntFlag{
			Name:        "seq-length",
			Usage:       "maximum context length",
			Value:       int64(modelDefaults.SeqLength),
			Destination: &seqLength,
		},
		&cli.FloatFlag{
			Name:        "learning-rate",
			Aliases:     []string{"lr"},
			Usage:       "learning rate",
			Value:       float64(modelDefaults.LearningRate),
			Destination: &learningRate,
		},
		&cli.IntFlag{
			Name:        "seed",
			Usage:       "seed for weight init and example selection",
			Value:       modelDefaults.Seed,
			Destination: &seed,
		},
		&cli.IntFlag{
			Name:        "epochs",
			Aliases:     []string{"e"},
			Usage:       "number of training epochs",
			Value:       int64(trainDefaults.Epochs),
			Destination: &epochs,
		},
		&cli.IntFlag{
			Name:        "steps",
			Usage:       "training steps per epoch",
			Value:       int64(trainDefaults.StepsPerEpoch),
			Destination: &stepsPerEpoch,
		},
	}
	flags = append(flags, logFlags(&logLevel, &logFormat)...)

	return &cli.Command{
		Name:  "train",
		Usage: "Train a model on a text corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			fc := loadFileConfig()
			applyInt64(c, fc.VocabSize, "vocab-size", &vocabSize)
			applyInt64(c, fc.HiddenDim, "hidden-dim", &hiddenDim)
			applyInt64(c, fc.NumHeads, "num-heads", &numHeads)
			applyInt64(c, fc.NumLayers, "num-layers", &numLayers)
			applyInt64(c, fc.SeqLength, "seq-length", &seqLength)
			applyFloat64(c, fc.LearningRate, "learning-rate", &learningRate)
			applyInt64(c, fc.Seed, "seed", &seed)
			applyInt64(c, fc.Epochs, "epochs", &epochs)
			applyInt64(c, fc.StepsPerEpoch, "steps", &stepsPerEpoch)
			log := newLogger(c, fc, logLevel, logFormat)

			lines, err := corpus.Load(corpusPath)
			if err != nil {
				return err
			}
			log.Info("corpus loaded", "path", corpusPath, "lines", len(lines))

			tok := tokenizer.BuildWord(lines, int(vocabSize))
			if err := tok.SaveVocab(vocabPath); err != nil {
				return err
			}
			log.Info("vocabulary built", "size", tok.VocabSize(), "path", vocabPath)

			cfg := model.Config{
				VocabSize:    tok.VocabSize(),
				HiddenDim:    int(hiddenDim),
				NumHeads:     int(numHeads),
				NumLayers:    int(numLayers),
				SeqLength:    int(seqLength),
				LearningRate: float32(learningRate),
				Seed:         seed,
			}
			m, err := model.New(cfg)
			if err != nil {
				return err
			}

			trainer, err := train.New(m, tok, lines, log)
			if err != nil {
				return err
			}
			result, err := trainer.Run(ctx, train.Config{
				Epochs:        int(epochs),
				StepsPerEpoch: int(stepsPerEpoch),
				Seed:          seed,
			})
			if err != nil {
				return err
			}

			if err := serialization.SaveFile(checkpointPath, m); err != nil {
				return err
			}
			log.Info("training complete",
				"steps", result.Steps,
				"final_loss", result.FinalLoss(),
				"checkpoint", checkpointPath)

			fmt.Printf("trained %d steps, final loss %.4f, checkpoint written to %s\n",
				result.Steps, result.FinalLoss(), checkpointPath)
			return nil
		},
	}
}
