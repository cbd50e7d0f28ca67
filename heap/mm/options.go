package mm

import (
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/internal/format"
)

// logAllocEnv turns on debug logging for allocators created without a Logger.
const logAllocEnv = "HEAPKIT_LOG_ALLOC"

// Options configures an Allocator. A nil *Options means DefaultOptions.
type Options struct {
	// ChunkSize is the minimum number of bytes requested from the provider
	// when no free block fits. Rounded up to a multiple of 8.
	ChunkSize int

	// Logger receives init, grow and attach events. Nil discards them unless
	// HEAPKIT_LOG_ALLOC is set.
	Logger *slog.Logger

	// Tracker is told about every tag the allocator writes. Optional.
	Tracker dirty.DirtyTracker
}

// DefaultOptions grows the heap one page at a time and does not track writes.
var DefaultOptions = Options{
	ChunkSize: format.ChunkSize,
}

func (o *Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return format.ChunkSize
	}
	return format.Align8(o.ChunkSize)
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	if os.Getenv(logAllocEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.DiscardHandler)
}

// LayoutInfo describes the boundary-tag layout of every heap image.
type LayoutInfo struct {
	WordSize     int // size of one header or footer tag
	Alignment    int // payload and block size alignment
	MinBlockSize int
}

// Layout returns the fixed layout parameters.
func Layout() LayoutInfo {
	return LayoutInfo{
		WordSize:     format.WordSize,
		Alignment:    format.DoubleSize,
		MinBlockSize: format.MinBlockSize,
	}
}
