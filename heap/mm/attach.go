package mm

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/internal/format"
)

// Attach rebuilds an allocator from a heap image that an earlier allocator
// laid out at offset 0 of p, such as a reopened heap file. The free list is
// reconstructed by walking the block tags; the result is verified before it
// is returned.
func Attach(p memlib.Provider, opts *Options) (*Allocator, error) {
	a := New(p, opts)
	data := p.Bytes()
	if len(data) < format.BoundarySize {
		return nil, fmt.Errorf("%w: image of %d bytes has no prologue", ErrCorrupt, len(data))
	}
	if !format.IsAligned(len(data)) {
		return nil, fmt.Errorf("%w: image size %d not a multiple of %d", ErrCorrupt, len(data), format.DoubleSize)
	}

	a.data = data
	a.base = 0
	a.start = format.DoubleSize
	want := format.Pack(format.PrologueSize, true)
	if block.Tag(data, a.start) != want || format.ReadU32(data, int(a.start)) != want {
		return nil, fmt.Errorf("%w: bad prologue", ErrCorrupt)
	}
	a.ready = true

	if err := a.rebuildFreeList(); err != nil {
		a.ready = false
		return nil, err
	}
	if err := a.Check(); err != nil {
		a.ready = false
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	a.log.Debug("heap attached",
		"heap_bytes", a.HeapSize(),
		"free_blocks", len(a.nodes),
		"live_bytes", a.stats.LiveBytes)
	return a, nil
}

// rebuildFreeList walks every block and links the free ones in address order.
func (a *Allocator) rebuildFreeList() error {
	a.root, a.top = nil, nil
	clear(a.nodes)
	a.stats = Stats{}

	it := a.Blocks()
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if b.Allocated {
			a.stats.LiveBytes += int64(b.Size)
			continue
		}
		a.pushTop(b.Ref)
	}
	a.stats.PeakLiveBytes = a.stats.LiveBytes
	return nil
}
