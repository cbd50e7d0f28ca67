package mm

import "github.com/joshuapare/heapkit/heap/block"

// Stats holds allocator counters. Byte counts are block sizes, tags included.
type Stats struct {
	GrowCalls        int   // Provider.Grow calls
	GrowBytes        int64 // Bytes added through Grow
	MallocCalls      int   // Malloc calls with a non-zero size
	AllocFastPath    int   // Allocations served without growing
	AllocSlowPath    int   // Allocations that required Grow
	FreeCalls        int   // Free calls on a real block
	ReallocCalls     int   // Realloc calls on a real block
	SplitCount       int   // Blocks split during placement
	CoalesceForward  int   // Merges with the following block
	CoalesceBackward int   // Merges with the preceding block
	BytesAllocated   int64 // Total bytes handed out
	BytesFreed       int64 // Total bytes returned
	LiveBytes        int64 // Bytes currently allocated
	PeakLiveBytes    int64 // High-water mark of LiveBytes

	// Snapshot of the free list when Stats was called
	FreeBlocks  int
	FreeBytes   int64
	LargestFree int
	HeapSize    int
}

// Stats returns the counters plus a snapshot of the free list.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.HeapSize = a.HeapSize()
	for n := a.root; n != nil; n = n.next {
		size := block.Size(a.data, n.bp)
		s.FreeBlocks++
		s.FreeBytes += int64(size)
		s.LargestFree = max(s.LargestFree, size)
	}
	return s
}

// Utilization returns the peak allocated bytes as a fraction of the heap size.
func (a *Allocator) Utilization() float64 {
	size := a.HeapSize()
	if size <= 0 {
		return 0
	}
	return float64(a.stats.PeakLiveBytes) / float64(size)
}
