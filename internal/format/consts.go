// Package format houses the low-level layout constants and word codecs for the
// heap image. Everything here is pure arithmetic over byte slices so the block
// and engine packages can stay free of encoding details.
package format

const (
	// WordSize is the size of a boundary tag (header or footer) in bytes.
	WordSize = 4

	// DoubleSize is the double-word alignment unit. Every block size and every
	// payload offset is a multiple of it.
	DoubleSize = 8

	// Overhead is the number of bytes a block spends on its header and footer.
	Overhead = 2 * WordSize

	// MinBlockSize is the smallest block the allocator will create. A free
	// block must be able to stand on its own after it is split off, so this is
	// two alignment units: header, footer and one aligned payload word.
	MinBlockSize = 2 * DoubleSize

	// ChunkSize is the default number of bytes requested from the growth
	// primitive when the free list has no fit (one page).
	ChunkSize = 1 << 12

	// PrologueSize is the size of the prologue block (header + footer, no payload).
	PrologueSize = DoubleSize

	// BoundarySize is the space taken by the alignment pad, the prologue and the
	// epilogue header. It is requested once during initialization.
	BoundarySize = 4 * WordSize

	// AlignmentMask is the bitmask used for aligning to 8-byte boundaries (DoubleSize - 1).
	AlignmentMask = DoubleSize - 1

	// ChunkAlignmentMask is the bitmask used for aligning to page boundaries.
	ChunkAlignmentMask = ChunkSize - 1

	// AllocBit marks a tag as allocated.
	AllocBit = 0x1

	// FlagMask covers the low bits of a tag that are not part of the size.
	FlagMask = 0x7

	// MaxHeapSize is the largest heap image addressable with 32-bit offsets
	// and 32-bit tags, rounded down to the alignment unit.
	MaxHeapSize = 0xFFFFFFF8
)
