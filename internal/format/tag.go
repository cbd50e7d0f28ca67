package format

// Boundary tag layout (little-endian, one word):
//
//	Bits   Description
//	31..3  Block size in bytes (always a multiple of 8, so the low bits are free)
//	2..1   Reserved, always zero
//	0      Allocated flag
//
// The prologue and epilogue are allocated tags of size 8 and 0.

// Pack combines a block size and an allocated flag into one tag word.
// size must be a multiple of DoubleSize.
func Pack(size int, allocated bool) uint32 {
	tag := uint32(size)
	if allocated {
		tag |= AllocBit
	}
	return tag
}

// TagSize extracts the block size from a tag word.
func TagSize(tag uint32) int {
	return int(tag &^ FlagMask)
}

// TagAlloc reports whether a tag word carries the allocated flag.
func TagAlloc(tag uint32) bool {
	return tag&AllocBit != 0
}

// PutTag writes Pack(size, allocated) at off.
func PutTag(b []byte, off int, size int, allocated bool) {
	PutU32(b, off, Pack(size, allocated))
}
