package tensor

import "errors"

// Sentinel errors returned (wrapped) by tensor constructors and kernels.
// Use errors.Is to classify a failure.
var (
	// ErrShape indicates incompatible or invalid tensor shapes.
	ErrShape = errors.New("shape mismatch")

	// ErrRange indicates an index outside the valid bounds of a buffer,
	// for example a token id outside the embedding table.
	ErrRange = errors.New("index out of range")
)
