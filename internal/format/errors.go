package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates a size or offset off the double-word boundary.
	ErrMisaligned = errors.New("format: misaligned value")
)
