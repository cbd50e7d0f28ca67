// Package memlib provides the raw heap-growth primitive consumed by the
// allocator: an sbrk-style call that extends a contiguous region and returns
// the offset where the new bytes begin.
//
// # Providers
//
//   - Slice: an in-process buffer with a fixed ceiling. The backing array is
//     reserved up front, so Bytes() never moves.
//   - File (unix): the heap lives in a file mapped read-write. Grow extends the
//     file and remaps it, so callers must re-read Bytes() after every Grow.
//
// Providers are not thread-safe.
package memlib

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// DefaultMaxHeap is the default ceiling of a Slice provider (20 MiB).
const DefaultMaxHeap = 20 * (1 << 20)

var (
	// ErrExhausted indicates the provider cannot grant more bytes.
	ErrExhausted = errors.New("memlib: out of memory")

	// ErrNegative indicates a negative growth request.
	ErrNegative = errors.New("memlib: negative increment")

	// ErrMisaligned indicates a growth request that is not a multiple of 8.
	ErrMisaligned = errors.New("memlib: increment not double-word aligned")

	// ErrClosed indicates use of a closed provider.
	ErrClosed = errors.New("memlib: provider closed")
)

// Provider is the growth primitive.
type Provider interface {
	// Grow extends the region by n bytes and returns the offset of the first
	// new byte (the previous length). The new bytes are zeroed. On error
	// nothing changes.
	Grow(n int) (start int, err error)

	// Bytes returns the whole granted region. The slice may be replaced by a
	// successful Grow.
	Bytes() []byte

	// Len returns the number of bytes granted so far.
	Len() int
}

// ReadOnlyProvider is implemented by providers whose region must not be
// written, such as an Image. Allocators over them refuse every mutation.
type ReadOnlyProvider interface {
	ReadOnly() bool
}

// Resetter is implemented by providers that can drop everything they have
// granted and start over from an empty region.
type Resetter interface {
	Reset() error
}

// checkIncrement validates a growth request against the current length and
// the ceiling (max <= 0 means no ceiling beyond the 32-bit offset limit).
func checkIncrement(cur, n, max int) error {
	if n < 0 {
		return ErrNegative
	}
	if !format.IsAligned(n) {
		return fmt.Errorf("%w: %d", ErrMisaligned, n)
	}
	limit := format.MaxHeapSize
	if max > 0 && max < limit {
		limit = max
	}
	if n > limit-cur {
		return fmt.Errorf("%w: have %d, requested %d, limit %d", ErrExhausted, cur, n, limit)
	}
	return nil
}
