package format

// Alignment utilities for the heap image. Block sizes and payload offsets are
// always aligned to the double-word boundary.

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// AlignChunk returns n aligned up to the next page (ChunkSize) boundary.
//
// Example:
//
//	AlignChunk(1)    = 4096
//	AlignChunk(4096) = 4096
//	AlignChunk(4097) = 8192
func AlignChunk(n int) int {
	return (n + ChunkAlignmentMask) & ^ChunkAlignmentMask
}

// IsAligned reports whether n sits on a double-word boundary.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// AdjustedSize converts a requested payload size into a block size: payload
// plus header/footer overhead, rounded up to the alignment unit, never less
// than MinBlockSize.
//
// Example:
//
//	AdjustedSize(1)   = 16
//	AdjustedSize(8)   = 16
//	AdjustedSize(9)   = 24
//	AdjustedSize(100) = 112
func AdjustedSize(size int) int {
	if size <= DoubleSize {
		return MinBlockSize
	}
	return DoubleSize * ((size + DoubleSize + (DoubleSize - 1)) / DoubleSize)
}
