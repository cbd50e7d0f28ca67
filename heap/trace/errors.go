package trace

import "errors"

var (
	// ErrSyntax indicates a malformed trace file.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrIntegrity indicates a payload that did not hold its contents, or a
	// block returned at a misaligned or out-of-heap offset.
	ErrIntegrity = errors.New("trace: payload integrity violated")

	// ErrOverlap indicates a block returned on top of a live block.
	ErrOverlap = errors.New("trace: blocks overlap")
)
