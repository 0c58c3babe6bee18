// Package serialization implements the Whisker checkpoint codec.
//
// The format is a fixed sequence of little-endian fields with no magic
// bytes, version, or checksum:
//
//	int32  vocabSize
//	int32  hiddenDim
//	int32  numLayers
//	int32  seqLength
//	int32  embedding buffer length, then that many float32s (row-major)
//	int32  output-weight buffer length, then that many float32s (row-major)
//
// Only the embedding table and output projection are persisted. Loading
// rebuilds the model at the saved configuration, re-randomizing the
// transformer layers from the model's seed, and then overwrites the two
// persisted buffers. A truncated or inconsistent file fails the whole load;
// there is no partial recovery.
package serialization

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/whisker-ml/whisker/internal/model"
	"github.com/whisker-ml/whisker/internal/tensor"
)

// Save writes the model's checkpoint to w.
func Save(w io.Writer, m *model.Model) error {
	bw := bufio.NewWriter(w)
	cfg := m.Config()

	header := []int32{
		int32(cfg.VocabSize),
		int32(cfg.HiddenDim),
		int32(cfg.NumLayers),
		int32(cfg.SeqLength),
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("serialization: write header: %w", err)
		}
	}

	if err := writeBuffer(bw, m.Embedding()); err != nil {
		return fmt.Errorf("serialization: write embedding: %w", err)
	}
	if err := writeBuffer(bw, m.OutputWeight()); err != nil {
		return fmt.Errorf("serialization: write output weight: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("serialization: flush: %w", err)
	}
	return nil
}

// SaveFile writes the model's checkpoint to the file at path, creating or
// truncating it.
func SaveFile(path string, m *model.Model) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("serialization: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("serialization: %w", closeErr)
		}
	}()
	return Save(f, m)
}

// Load reads a checkpoint from r and reconstructs a model.
//
// The returned model is built with base defaults (NumHeads, LearningRate,
// Seed) where base supplies them, overridden by the dimensions stored in
// the checkpoint. Transformer-layer and bias weights are not persisted;
// they are re-initialized from the seed, and the embedding and output
// buffers are then overwritten from the file.
func Load(r io.Reader, base model.Config) (*model.Model, error) {
	br := bufio.NewReader(r)

	var vocabSize, hiddenDim, numLayers, seqLength int32
	for _, field := range []struct {
		name string
		dst  *int32
	}{
		{"vocab size", &vocabSize},
		{"hidden dim", &hiddenDim},
		{"num layers", &numLayers},
		{"seq length", &seqLength},
	} {
		if err := binary.Read(br, binary.LittleEndian, field.dst); err != nil {
			return nil, fmt.Errorf("serialization: read %s: %w", field.name, wrapEOF(err))
		}
	}

	cfg := base
	cfg.VocabSize = int(vocabSize)
	cfg.HiddenDim = int(hiddenDim)
	cfg.NumLayers = int(numLayers)
	cfg.SeqLength = int(seqLength)
	if cfg.NumHeads <= 0 {
		cfg.NumHeads = model.DefaultConfig().NumHeads
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = model.DefaultConfig().LearningRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}

	m, err := model.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("serialization: rebuild model: %w", err)
	}

	if err := readBuffer(br, m.Embedding(), "embedding"); err != nil {
		return nil, err
	}
	if err := readBuffer(br, m.OutputWeight(), "output weight"); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFile reads a checkpoint from the file at path.
func LoadFile(path string, base model.Config) (m *model.Model, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("serialization: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("serialization: %w", closeErr)
		}
	}()
	return Load(f, base)
}

// writeBuffer writes the buffer length followed by the raw float32 values.
func writeBuffer(w io.Writer, t *tensor.Tensor) error {
	if err := binary.Write(w, binary.LittleEndian, int32(t.NumElements())); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, t.Data())
}

// readBuffer reads a length-prefixed float32 buffer into dst, which must
// already have exactly the expected size for the loaded configuration.
func readBuffer(r io.Reader, dst *tensor.Tensor, name string) error {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("serialization: read %s length: %w", name, wrapEOF(err))
	}
	if int(n) != dst.NumElements() {
		return fmt.Errorf("%w: %s has %d elements, want %d for shape %v",
			ErrLengthMismatch, name, n, dst.NumElements(), dst.Shape())
	}
	if err := binary.Read(r, binary.LittleEndian, dst.Data()); err != nil {
		return fmt.Errorf("serialization: read %s: %w", name, wrapEOF(err))
	}
	return nil
}

// wrapEOF folds both EOF flavors into ErrTruncated so callers can classify
// a short file with a single errors.Is check.
func wrapEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}
