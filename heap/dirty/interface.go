package dirty

import "context"

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
// Allocators report every tag they write; they never flush themselves.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the heap image, length is the number of bytes.
	Add(off, length int)
}

// Flusher extends DirtyTracker with persistence of the recorded ranges.
type Flusher interface {
	DirtyTracker

	// Flush writes all dirty ranges to stable storage and clears them.
	Flush(ctx context.Context) error
}

// Target is the file-backed heap a Tracker flushes. memlib.File implements it.
type Target interface {
	Bytes() []byte
	FD() int
	Sync() error
}
