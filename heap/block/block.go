// Package block implements the boundary-tag layout of heap blocks.
//
// A block is addressed by the offset of its payload (a Ref). The header word
// sits immediately before the payload and the footer word occupies the last
// word of the block, so the previous block's footer is always the word just
// before a block's header:
//
//	      hdr                 ftr hdr
//	... | size|a | payload... | size|a | size|a | payload...
//	           ^bp                              ^Next(bp)
//
// All functions are offset arithmetic over the heap image. Accesses go
// through Go slices, so a corrupt size can make them panic but never read or
// write outside the image. Valid/Check give a non-panicking test for refs that
// come from callers.
package block

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Ref is the offset of a block's payload inside the heap image.
type Ref = uint32

// Nil is the zero Ref. No block has its payload at offset 0.
const Nil Ref = 0

// Header returns the offset of bp's header tag.
func Header(bp Ref) int {
	return int(bp) - format.WordSize
}

// Footer returns the offset of bp's footer tag, using the size in its header.
func Footer(data []byte, bp Ref) int {
	return int(bp) + Size(data, bp) - format.DoubleSize
}

// Tag returns the raw header word of bp.
func Tag(data []byte, bp Ref) uint32 {
	return format.ReadU32(data, Header(bp))
}

// Size returns the block size recorded in bp's header, tags included.
func Size(data []byte, bp Ref) int {
	return format.TagSize(Tag(data, bp))
}

// IsAllocated reports whether bp's header carries the allocated flag.
func IsAllocated(data []byte, bp Ref) bool {
	return format.TagAlloc(Tag(data, bp))
}

// Next returns the payload offset of the block that follows bp.
func Next(data []byte, bp Ref) Ref {
	return bp + Ref(Size(data, bp))
}

// Prev returns the payload offset of the block that precedes bp, read from
// the previous block's footer. Must not be called on the prologue.
func Prev(data []byte, bp Ref) Ref {
	return bp - Ref(format.TagSize(format.ReadU32(data, int(bp)-format.DoubleSize)))
}

// PrevAllocated reports the allocated flag of the previous block's footer.
func PrevAllocated(data []byte, bp Ref) bool {
	return format.TagAlloc(format.ReadU32(data, int(bp)-format.DoubleSize))
}

// NextAllocated reports the allocated flag of the next block's header. The
// epilogue counts as allocated.
func NextAllocated(data []byte, bp Ref) bool {
	return IsAllocated(data, Next(data, bp))
}

// SetTags writes header and footer of bp together. Every size or state change
// goes through here so the two tags never disagree.
func SetTags(data []byte, bp Ref, size int, allocated bool) {
	tag := format.Pack(size, allocated)
	format.PutU32(data, Header(bp), tag)
	format.PutU32(data, int(bp)+size-format.DoubleSize, tag)
}

// SetHeader writes only the header of bp. Used for the epilogue, which has no
// footer.
func SetHeader(data []byte, bp Ref, size int, allocated bool) {
	format.PutTag(data, Header(bp), size, allocated)
}

// Payload returns the payload bytes of bp (block size minus header and footer).
func Payload(data []byte, bp Ref) []byte {
	return data[bp : int(bp)+Size(data, bp)-format.Overhead]
}

// Capacity returns how many payload bytes bp can hold.
func Capacity(data []byte, bp Ref) int {
	return Size(data, bp) - format.Overhead
}

// Check validates that bp plausibly addresses a block: aligned, header in
// range, size sane, and footer matching the header.
func Check(data []byte, bp Ref) error {
	if !format.IsAligned(int(bp)) {
		return fmt.Errorf("block 0x%X: %w", bp, format.ErrMisaligned)
	}
	if int(bp) < format.WordSize || !buf.Has(data, Header(bp), format.WordSize) {
		return fmt.Errorf("block 0x%X: header: %w", bp, format.ErrTruncated)
	}
	size := Size(data, bp)
	if size < format.MinBlockSize {
		return fmt.Errorf("block 0x%X: size %d below minimum %d", bp, size, format.MinBlockSize)
	}
	if !buf.Has(data, int(bp), size-format.WordSize) {
		return fmt.Errorf("block 0x%X: size %d: %w", bp, size, format.ErrTruncated)
	}
	if format.ReadU32(data, Footer(data, bp)) != Tag(data, bp) {
		return fmt.Errorf("block 0x%X: header/footer mismatch", bp)
	}
	return nil
}

// Valid reports whether Check accepts bp.
func Valid(data []byte, bp Ref) bool {
	return Check(data, bp) == nil
}
