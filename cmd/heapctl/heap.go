package main

import (
	"context"
	"fmt"

	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/heap/mm"
)

// heapConfig selects the provider behind a replay.
type heapConfig struct {
	file  string // heap file path; empty for an in-process heap
	chunk int    // growth chunk, 0 for the default
	max   int    // provider ceiling, 0 for the default
}

// openHeap creates and initializes an allocator. The returned close func
// flushes and closes a file-backed heap.
func openHeap(cfg heapConfig) (*mm.Allocator, func(context.Context) error, error) {
	opts := &mm.Options{ChunkSize: cfg.chunk, Logger: logger()}

	if cfg.file == "" {
		a := mm.New(memlib.NewSlice(cfg.max), opts)
		if err := a.Init(); err != nil {
			return nil, nil, err
		}
		return a, func(context.Context) error { return nil }, nil
	}

	f, err := memlib.CreateFile(cfg.file, cfg.max)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create heap file: %w", err)
	}
	opts.Tracker = dirty.NewTracker(f)
	a := mm.New(f, opts)
	if err := a.Init(); err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	closeHeap := func(ctx context.Context) error {
		if err := a.Flush(ctx); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to flush heap file: %w", err)
		}
		return f.Close()
	}
	return a, closeHeap, nil
}
