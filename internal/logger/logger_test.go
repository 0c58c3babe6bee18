package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestText_WritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo)

	log.Info("epoch done", "epoch", 3, "loss", 0.5)

	out := buf.String()
	assert.Contains(t, out, "epoch done")
	assert.Contains(t, out, "epoch=3")
	assert.Contains(t, out, "loss=0.5")
}

func TestText_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo).With("run", "abc")

	log.Info("step")
	assert.True(t, strings.Contains(buf.String(), "run=abc"))
}
