// Package mm implements a general-purpose allocator over one contiguous,
// growable heap region.
//
// # Overview
//
// Blocks carry boundary tags (a header and a footer word holding the block
// size and an allocated flag) inside the heap image. Free blocks are also
// tracked by an explicit, doubly linked free list kept in ascending address
// order. Allocation is first-fit over that list; a block is split when the
// remainder can stand on its own, and freed blocks are merged with free
// neighbors immediately.
//
// Raw memory comes from a memlib.Provider. The allocator grows it by at least
// ChunkSize bytes whenever no free block fits.
//
// # Heap Layout
//
//	base+0   alignment pad
//	base+4   prologue header  Pack(8, allocated)
//	base+8   prologue footer  Pack(8, allocated)   <- Start()
//	base+16  first block ...
//	len-4    epilogue header  Pack(0, allocated)
//
// The prologue and epilogue are permanently allocated, so coalescing never
// needs an edge case at either end of the heap.
//
// # Usage Example
//
//	a := mm.New(memlib.NewSlice(0), nil)
//	if err := a.Init(); err != nil {
//	    return err
//	}
//
//	bp, err := a.Malloc(100)
//	if err != nil {
//	    return err
//	}
//	buf, _ := a.Payload(bp)
//	copy(buf, data)
//
//	bp, err = a.Realloc(bp, 400)
//	...
//	err = a.Free(bp)
//
// A heap stored in a file can be reopened later with Attach, which rebuilds
// the free list from the block tags.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Independent allocators over
// independent providers share nothing and may run concurrently.
package mm
