package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/whisker-ml/whisker/internal/model"
	"github.com/whisker-ml/whisker/internal/serialization"
	"github.com/whisker-ml/whisker/internal/tensor"
)

type bufferStats struct {
	Shape []int   `json:"shape"`
	Min   float32 `json:"min"`
	Max   float32 `json:"max"`
	Mean  float32 `json:"mean"`
}

type inspectReport struct {
	Config    model.Config `json:"config"`
	Embedding bufferStats  `json:"embedding"`
	Output    bufferStats  `json:"output"`
}

func statsOf(t *tensor.Tensor) bufferStats {
	data := t.Data()
	s := bufferStats{
		Shape: t.Shape().Clone(),
		Min:   data[0],
		Max:   data[0],
	}
	var sum float64
	for _, v := range data {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += float64(v)
	}
	s.Mean = float32(sum / float64(len(data)))
	return s
}

func inspectCmd() *cli.Command {
	var (
		checkpointPath string
		asJSON         bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the configuration and weight statistics of a checkpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "checkpoint",
				Aliases:     []string{"m"},
				Usage:       "path to the checkpoint",
				Required:    true,
				Destination: &checkpointPath,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit the report as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			m, err := serialization.LoadFile(checkpointPath, model.DefaultConfig())
			if err != nil {
				return err
			}

			report := inspectReport{
				Config:    m.Config(),
				Embedding: statsOf(m.Embedding()),
				Output:    statsOf(m.OutputWeight()),
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			cfg := report.Config
			fmt.Printf("checkpoint:     %s\n", checkpointPath)
			fmt.Printf("vocab size:     %d\n", cfg.VocabSize)
			fmt.Printf("hidden dim:     %d\n", cfg.HiddenDim)
			fmt.Printf("num layers:     %d\n", cfg.NumLayers)
			fmt.Printf("seq length:     %d\n", cfg.SeqLength)
			printStats("embedding", report.Embedding)
			printStats("output", report.Output)
			return nil
		},
	}
}

func printStats(name string, s bufferStats) {
	fmt.Printf("%-10s shape=%v min=%.6f max=%.6f mean=%.6f\n",
		name, s.Shape, s.Min, s.Max, s.Mean)
}
