package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/whisker-ml/whisker/internal/logger"
)

// fileConfig represents the whisker configuration file
// (~/.config/whisker/config.yaml). Numeric fields are pointers so a set
// zero can be told apart from "not set".
type fileConfig struct {
	// Model defaults
	VocabSize    *int64   `yaml:"vocab_size"`
	HiddenDim    *int64   `yaml:"hidden_dim"`
	NumHeads     *int64   `yaml:"num_heads"`
	NumLayers    *int64   `yaml:"num_layers"`
	SeqLength    *int64   `yaml:"seq_length"`
	LearningRate *float64 `yaml:"learning_rate"`
	Seed         *int64   `yaml:"seed"`

	// Training defaults
	Epochs        *int64 `yaml:"epochs"`
	StepsPerEpoch *int64 `yaml:"steps_per_epoch"`

	// Generation defaults
	MaxTokens *int64 `yaml:"max_tokens"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "whisker", "config.yaml")
}

// loadFileConfig reads the config file. Returns a zero config if the file
// doesn't exist or can't be parsed; the CLI must work without one.
func loadFileConfig() fileConfig {
	path := configPath()
	if path == "" {
		return fileConfig{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}
	}
	return cfg
}

// applyInt64 copies a config file value over a flag variable when the flag
// was not set on the command line.
func applyInt64(c *cli.Command, val *int64, flag string, dst *int64) {
	if val != nil && !c.IsSet(flag) {
		*dst = *val
	}
}

func applyFloat64(c *cli.Command, val *float64, flag string, dst *float64) {
	if val != nil && !c.IsSet(flag) {
		*dst = *val
	}
}

// newLogger builds the command logger from flags and the config file, flags
// winning.
func newLogger(c *cli.Command, cfg fileConfig, level, format string) logger.Logger {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		level = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		format = cfg.LogFormat
	}

	lvl := logger.ParseLevel(level)
	if format == "json" {
		return logger.JSON(os.Stderr, lvl)
	}
	return logger.Text(os.Stderr, lvl)
}

func logFlags(level, format *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: format,
		},
	}
}
