package mm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
)

// Allocator manages one heap region obtained from a memlib.Provider.
type Allocator struct {
	p     memlib.Provider
	dt    dirty.DirtyTracker // nil when writes are not tracked
	log   *slog.Logger
	chunk int

	// readOnly is set for providers that refuse writes (memlib.Image).
	readOnly bool

	// data caches p.Bytes(). A file provider remaps on Grow, so it is
	// refreshed after every successful growth.
	data  []byte
	base  int       // offset of the alignment pad
	start block.Ref // prologue payload offset
	ready bool

	// Explicit free list, ascending by address. nodes indexes every node by
	// its block so coalescing can find a neighbor's node directly.
	root  *freeNode
	top   *freeNode
	nodes map[block.Ref]*freeNode

	stats Stats

	// Test hook: called with the byte count before each Grow (nil in production)
	onGrow func(int)
}

// New creates an allocator over p. Call Init (fresh heap) or use Attach
// (existing heap) before allocating.
func New(p memlib.Provider, opts *Options) *Allocator {
	if opts == nil {
		opts = &DefaultOptions
	}
	ro, _ := p.(memlib.ReadOnlyProvider)
	return &Allocator{
		p:        p,
		dt:       opts.Tracker,
		log:      opts.logger(),
		chunk:    opts.chunkSize(),
		readOnly: ro != nil && ro.ReadOnly(),
		nodes:    make(map[block.Ref]*freeNode, 64),
	}
}

// Init lays out a fresh heap: pad, prologue and epilogue, then one chunk of
// free space. Providers implementing memlib.Resetter are reset first, so Init
// may be called again to start over.
func (a *Allocator) Init() error {
	if a.readOnly {
		return memlib.ErrReadOnly
	}
	if r, ok := a.p.(memlib.Resetter); ok {
		if err := r.Reset(); err != nil {
			return fmt.Errorf("mm: reset provider: %w", err)
		}
	}
	a.ready = false
	a.root, a.top = nil, nil
	clear(a.nodes)
	a.stats = Stats{}

	base, err := a.p.Grow(format.BoundarySize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoSpace, err)
	}
	a.data = a.p.Bytes()
	a.base = base
	a.start = block.Ref(base + format.DoubleSize)

	format.PutU32(a.data, base, 0)
	block.SetTags(a.data, a.start, format.PrologueSize, true)
	block.SetHeader(a.data, a.start+format.PrologueSize, 0, true)
	a.mark(base, format.BoundarySize)
	a.ready = true

	if _, err := a.extend(a.chunk); err != nil {
		a.ready = false
		return err
	}
	a.log.Debug("heap initialized",
		"base", base,
		"heap_bytes", a.HeapSize(),
		"chunk", a.chunk)
	return nil
}

// Malloc allocates a block with at least size payload bytes and returns its
// payload offset. A zero size returns Nil without touching the heap.
func (a *Allocator) Malloc(size int) (block.Ref, error) {
	if !a.ready {
		return block.Nil, ErrNotInitialized
	}
	if a.readOnly {
		return block.Nil, memlib.ErrReadOnly
	}
	if size < 0 {
		return block.Nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if size == 0 {
		return block.Nil, nil
	}
	if int64(size) > format.MaxHeapSize {
		return block.Nil, fmt.Errorf("%w: request of %d bytes", ErrNoSpace, size)
	}
	a.stats.MallocCalls++

	asize := format.AdjustedSize(size)
	n := a.findFit(asize)
	grew := false
	if n == nil {
		if _, err := a.extend(max(asize, a.chunk)); err != nil {
			return block.Nil, err
		}
		grew = true
		if n = a.findFit(asize); n == nil {
			return block.Nil, fmt.Errorf("%w: no fit for %d bytes after growth", ErrCorrupt, asize)
		}
	}

	if grew {
		a.stats.AllocSlowPath++
	} else {
		a.stats.AllocFastPath++
	}

	bp := a.place(n, asize)
	bsize := block.Size(a.data, bp)
	a.stats.BytesAllocated += int64(bsize)
	a.stats.LiveBytes += int64(bsize)
	a.stats.PeakLiveBytes = max(a.stats.PeakLiveBytes, a.stats.LiveBytes)
	return bp, nil
}

// Free releases the block at bp. Freeing Nil is a no-op.
func (a *Allocator) Free(bp block.Ref) error {
	if bp == block.Nil {
		return nil
	}
	if !a.ready {
		return ErrNotInitialized
	}
	if a.readOnly {
		return memlib.ErrReadOnly
	}
	if err := a.checkAllocated(bp); err != nil {
		return err
	}
	a.stats.FreeCalls++

	size := block.Size(a.data, bp)
	block.SetTags(a.data, bp, size, false)
	a.markTags(bp, size)
	a.stats.BytesFreed += int64(size)
	a.stats.LiveBytes -= int64(size)

	if _, err := a.coalesce(a.insert(bp)); err != nil {
		return err
	}
	return nil
}

// Realloc moves the payload of bp into a block of at least size bytes and
// frees bp. The first min(size, capacity of bp) payload bytes are preserved.
//
// Realloc(Nil, n) is Malloc(n). Realloc(bp, 0) returns Nil and leaves bp
// allocated. When the new block cannot be allocated, bp is left untouched.
func (a *Allocator) Realloc(bp block.Ref, size int) (block.Ref, error) {
	if bp == block.Nil {
		return a.Malloc(size)
	}
	if !a.ready {
		return block.Nil, ErrNotInitialized
	}
	if a.readOnly {
		return block.Nil, memlib.ErrReadOnly
	}
	if size < 0 {
		return block.Nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if err := a.checkAllocated(bp); err != nil {
		return block.Nil, err
	}
	a.stats.ReallocCalls++
	if size == 0 {
		return block.Nil, nil
	}

	nbp, err := a.Malloc(size)
	if err != nil {
		return block.Nil, err
	}
	n := min(size, block.Capacity(a.data, bp))
	copy(a.data[nbp:int(nbp)+n], a.data[bp:int(bp)+n])
	a.mark(int(nbp), n)

	if err := a.Free(bp); err != nil {
		return block.Nil, err
	}
	return nbp, nil
}

// Payload returns the payload bytes of the allocated block bp. The slice
// aliases the heap image and is invalidated by any growth of a file-backed
// heap.
func (a *Allocator) Payload(bp block.Ref) ([]byte, error) {
	if !a.ready {
		return nil, ErrNotInitialized
	}
	if err := a.checkAllocated(bp); err != nil {
		return nil, err
	}
	return block.Payload(a.data, bp), nil
}

// UsableSize returns the payload capacity of the allocated block bp.
func (a *Allocator) UsableSize(bp block.Ref) (int, error) {
	if !a.ready {
		return 0, ErrNotInitialized
	}
	if err := a.checkAllocated(bp); err != nil {
		return 0, err
	}
	return block.Capacity(a.data, bp), nil
}

// Check validates every heap invariant; see verify.Heap.
func (a *Allocator) Check() error {
	if !a.ready {
		return ErrNotInitialized
	}
	return verify.Heap(a)
}

// Flush writes tracked dirty ranges to stable storage when the configured
// tracker supports it.
func (a *Allocator) Flush(ctx context.Context) error {
	f, ok := a.dt.(dirty.Flusher)
	if !ok {
		return nil
	}
	return f.Flush(ctx)
}

// Bytes returns the heap image as last seen by the allocator.
func (a *Allocator) Bytes() []byte { return a.data }

// Start returns the payload offset of the prologue block.
func (a *Allocator) Start() block.Ref { return a.start }

// Base returns the offset of the first heap byte inside the provider region.
func (a *Allocator) Base() int { return a.base }

// HeapSize returns the number of heap bytes, from the pad to the epilogue.
func (a *Allocator) HeapSize() int { return len(a.data) - a.base }

// Granted returns the number of bytes the provider has handed out in total.
func (a *Allocator) Granted() int { return a.p.Len() }

// Ready reports whether the allocator has a heap to work on.
func (a *Allocator) Ready() bool { return a.ready }

// extend grows the heap by size bytes (rounded to 8), turns the old epilogue
// into the header of a new free block, links that block as the top of the
// free list and merges it with a free predecessor.
func (a *Allocator) extend(size int) (*freeNode, error) {
	size = format.Align8(size)
	if a.onGrow != nil {
		a.onGrow(size)
	}
	start, err := a.p.Grow(size)
	if err != nil {
		// A failed remap may still have moved the region.
		a.data = a.p.Bytes()
		a.log.Debug("grow failed",
			"requested", size,
			"heap_bytes", a.HeapSize(),
			"error", err)
		return nil, fmt.Errorf("%w: %w", ErrNoSpace, err)
	}
	a.data = a.p.Bytes()
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(size)

	bp := block.Ref(start)
	block.SetTags(a.data, bp, size, false)
	a.markTags(bp, size)
	epi := bp + block.Ref(size)
	block.SetHeader(a.data, epi, 0, true)
	a.mark(block.Header(epi), format.WordSize)

	a.log.Debug("heap grown",
		"requested", size,
		"block", bp,
		"heap_bytes", a.HeapSize())

	return a.coalesce(a.pushTop(bp))
}

// place marks asize bytes of n's block allocated. A remainder of at least
// MinBlockSize becomes a free block that takes over n's list position;
// otherwise the whole block is used and n leaves the list.
func (a *Allocator) place(n *freeNode, asize int) block.Ref {
	bp := n.bp
	csize := block.Size(a.data, bp)

	if rest := csize - asize; rest >= format.MinBlockSize {
		block.SetTags(a.data, bp, asize, true)
		a.markTags(bp, asize)
		next := bp + block.Ref(asize)
		block.SetTags(a.data, next, rest, false)
		a.markTags(next, rest)
		a.rekey(n, next)
		a.stats.SplitCount++
		return bp
	}

	block.SetTags(a.data, bp, csize, true)
	a.markTags(bp, csize)
	a.remove(n)
	return bp
}

// checkAllocated validates a caller-supplied ref: inside the heap, sane
// tags and currently allocated.
func (a *Allocator) checkAllocated(bp block.Ref) error {
	if bp <= a.start || int(bp) >= len(a.data) {
		return fmt.Errorf("%w: 0x%X outside heap", ErrBadRef, bp)
	}
	if err := block.Check(a.data, bp); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRef, err)
	}
	if !block.IsAllocated(a.data, bp) {
		return fmt.Errorf("%w: 0x%X", ErrNotAllocated, bp)
	}
	return nil
}

// mark reports a written range to the dirty tracker.
func (a *Allocator) mark(off, length int) {
	if a.dt != nil {
		a.dt.Add(off, length)
	}
}

// markTags reports the header and footer words of a block of the given size.
func (a *Allocator) markTags(bp block.Ref, size int) {
	if a.dt == nil {
		return
	}
	a.dt.Add(block.Header(bp), format.WordSize)
	a.dt.Add(int(bp)+size-format.DoubleSize, format.WordSize)
}

var _ verify.View = (*Allocator)(nil)
