package mm

import "errors"

var (
	// ErrNoSpace indicates that no free block fits and the provider refused to grow.
	ErrNoSpace = errors.New("mm: out of memory")

	// ErrNotInitialized indicates use of an allocator before Init or Attach.
	ErrNotInitialized = errors.New("mm: allocator not initialized")

	// ErrInvalidSize indicates a negative request size.
	ErrInvalidSize = errors.New("mm: invalid size")

	// ErrBadRef indicates a block reference that is misaligned, out of range
	// or does not carry consistent tags.
	ErrBadRef = errors.New("mm: bad block reference")

	// ErrNotAllocated indicates an attempt to free or resize a free block.
	ErrNotAllocated = errors.New("mm: block is not allocated")

	// ErrCorrupt indicates the heap image or the free list is inconsistent.
	ErrCorrupt = errors.New("mm: heap corrupt")
)
