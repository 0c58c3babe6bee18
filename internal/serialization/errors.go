package serialization

import "errors"

// Common errors. All checkpoint failures abort the whole load.
var (
	// ErrTruncated indicates the file ended before the declared data.
	ErrTruncated = errors.New("checkpoint truncated")

	// ErrLengthMismatch indicates a buffer length that does not match the
	// dimensions in the checkpoint header.
	ErrLengthMismatch = errors.New("checkpoint buffer length mismatch")

	// ErrBadConfig indicates header dimensions that cannot describe a model.
	ErrBadConfig = errors.New("checkpoint header invalid")
)
