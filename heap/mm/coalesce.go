package mm

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/block"
)

// coalesce merges the free block of n with free address neighbors and
// returns the node of the merged block. The merged block keeps the lowest
// address involved, so the list order is preserved by unlinking the absorbed
// nodes.
//
//	prev  next   action
//	alloc alloc  none
//	alloc free   absorb next
//	free  alloc  absorbed by prev
//	free  free   prev absorbs both
func (a *Allocator) coalesce(n *freeNode) (*freeNode, error) {
	bp := n.bp
	size := block.Size(a.data, bp)
	prevAlloc := block.PrevAllocated(a.data, bp)
	nextAlloc := block.NextAllocated(a.data, bp)

	if prevAlloc && nextAlloc {
		return n, nil
	}

	var prev, next *freeNode
	if !nextAlloc {
		nbp := block.Next(a.data, bp)
		if next = a.nodes[nbp]; next == nil {
			return nil, fmt.Errorf("%w: free block 0x%X not on the free list", ErrCorrupt, nbp)
		}
	}
	if !prevAlloc {
		pbp := block.Prev(a.data, bp)
		if prev = a.nodes[pbp]; prev == nil {
			return nil, fmt.Errorf("%w: free block 0x%X not on the free list", ErrCorrupt, pbp)
		}
	}

	if next != nil {
		size += block.Size(a.data, next.bp)
		a.remove(next)
		a.stats.CoalesceForward++
	}
	if prev != nil {
		size += block.Size(a.data, prev.bp)
		a.remove(n)
		n = prev
		a.stats.CoalesceBackward++
	}

	block.SetTags(a.data, n.bp, size, false)
	a.markTags(n.bp, size)
	return n, nil
}
