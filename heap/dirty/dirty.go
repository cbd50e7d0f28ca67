// Package dirty provides tracking and flushing of dirty pages in file-backed
// heap images.
//
// The tracker maintains a list of dirty byte ranges, coalesces them into
// page-aligned ranges, and flushes them to disk using platform-specific
// system calls (msync on Linux/BSD, a whole-mapping msync on macOS, a full
// write-back elsewhere).
//
// NOT thread-safe. Only one goroutine should use a Tracker at a time.
package dirty

import (
	"context"
	"os"
	"sort"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

// Range represents a dirty byte range (offsets into the heap image).
type Range struct {
	Off int64
	Len int64
}

// Tracker accumulates dirty ranges and flushes them efficiently.
type Tracker struct {
	t        Target
	ranges   []Range // raw ranges, coalesced at flush time
	pageSize int64
}

// NewTracker creates a dirty tracker for the given heap file.
func NewTracker(t Target) *Tracker {
	return &Tracker{
		t:        t,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(os.Getpagesize()),
	}
}

// Add records a dirty range. It only appends to a slice; alignment and
// merging happen at flush time.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Flush coalesces the dirty ranges, flushes each one and clears the list.
//
// The context is checked before each range. If cancelled midway, some ranges
// may have been flushed while others have not; the list is kept so a later
// Flush retries all of them.
func (t *Tracker) Flush(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data := t.t.Bytes()
	if len(data) == 0 {
		t.ranges = t.ranges[:0]
		return nil
	}
	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}
	t.ranges = t.ranges[:0]
	return nil
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Pending reports how many raw ranges are waiting to be flushed.
func (t *Tracker) Pending() int {
	return len(t.ranges)
}

// Ranges returns the coalesced ranges a Flush would write.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{
			Off: start,
			Len: end - start,
		}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]

	for i := 1; i < len(aligned); i++ {
		next := aligned[i]
		if next.Off <= current.Off+current.Len {
			end := max(current.Off+current.Len, next.Off+next.Len)
			current.Len = end - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}

	return append(merged, current)
}

var _ Flusher = (*Tracker)(nil)
