package mm

import (
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/heap/block"
)

// BlockInfo describes one block found by a heap walk.
type BlockInfo struct {
	Ref       block.Ref // payload offset
	Size      int       // block size, tags included
	Allocated bool
}

// Payload returns the payload capacity of the block.
func (b BlockInfo) Payload() int { return b.Size - 8 }

// BlockIterator walks the blocks between the prologue and the epilogue in
// address order.
//
// Usage:
//
//	it := a.Blocks()
//	for {
//	    b, err := it.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // ... use b ...
//	}
type BlockIterator struct {
	data []byte
	bp   block.Ref
	done bool
}

// Blocks returns an iterator over the current heap image. The iterator must
// not be used across operations that change the heap.
func (a *Allocator) Blocks() *BlockIterator {
	if !a.ready {
		return &BlockIterator{done: true}
	}
	return &BlockIterator{
		data: a.data,
		bp:   block.Next(a.data, a.start),
	}
}

// Next returns the next block, or io.EOF once the epilogue is reached.
func (it *BlockIterator) Next() (BlockInfo, error) {
	if it.done {
		return BlockInfo{}, io.EOF
	}
	if int(it.bp) > len(it.data) {
		it.done = true
		return BlockInfo{}, fmt.Errorf("%w: block 0x%X past end of heap (%d bytes)", ErrCorrupt, it.bp, len(it.data))
	}

	if block.Size(it.data, it.bp) == 0 {
		it.done = true
		if int(it.bp) != len(it.data) {
			return BlockInfo{}, fmt.Errorf("%w: epilogue at 0x%X is not the last word", ErrCorrupt, block.Header(it.bp))
		}
		if !block.IsAllocated(it.data, it.bp) {
			return BlockInfo{}, fmt.Errorf("%w: epilogue at 0x%X not marked allocated", ErrCorrupt, block.Header(it.bp))
		}
		return BlockInfo{}, io.EOF
	}

	if err := block.Check(it.data, it.bp); err != nil {
		it.done = true
		return BlockInfo{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	info := BlockInfo{
		Ref:       it.bp,
		Size:      block.Size(it.data, it.bp),
		Allocated: block.IsAllocated(it.data, it.bp),
	}
	it.bp = block.Next(it.data, it.bp)
	return info, nil
}
