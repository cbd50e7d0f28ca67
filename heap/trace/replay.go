package trace

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/heap/mm"
)

// Heap is the allocator surface Replay drives. *mm.Allocator implements it.
type Heap interface {
	Malloc(size int) (block.Ref, error)
	Free(bp block.Ref) error
	Realloc(bp block.Ref, size int) (block.Ref, error)
	Payload(bp block.Ref) ([]byte, error)
	Check() error
	HeapSize() int
	Stats() mm.Stats
}

// ReplayOptions configures Replay.
type ReplayOptions struct {
	// CheckEvery runs the full heap check after every operation.
	CheckEvery bool

	// Seed varies the payload patterns between runs.
	Seed int64
}

// Result summarizes a replay.
type Result struct {
	Name        string
	Ops         int
	Allocs      int
	Frees       int
	Reallocs    int
	PeakPayload int     // high-water mark of requested live bytes
	HeapSize    int     // heap bytes at the end of the run
	Utilization float64 // PeakPayload / HeapSize
	Elapsed     time.Duration
	Stats       mm.Stats
}

// span is the payload extent of a live id.
type span struct {
	id   int
	bp   block.Ref
	size int
}

type replayer struct {
	h    Heap
	opts ReplayOptions
	live map[int]span
	// spans holds live non-empty payloads sorted by address.
	spans   []span
	payload int
	peak    int
}

// Replay runs every operation of tr against h. h must be freshly
// initialized. The context is checked between operations.
func Replay(ctx context.Context, tr *Trace, h Heap, opts *ReplayOptions) (Result, error) {
	if opts == nil {
		opts = &ReplayOptions{}
	}
	rp := &replayer{
		h:    h,
		opts: *opts,
		live: make(map[int]span, tr.NumIDs),
	}
	res := Result{Name: tr.Name}
	start := time.Now()

	for i, op := range tr.Ops {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := rp.apply(op); err != nil {
			return res, opError(tr, i, op, err)
		}
		if rp.opts.CheckEvery {
			if err := h.Check(); err != nil {
				return res, opError(tr, i, op, err)
			}
		}
		res.Ops++
		switch op.Kind {
		case Alloc:
			res.Allocs++
		case Free:
			res.Frees++
		case Realloc:
			res.Reallocs++
		}
	}

	res.Elapsed = time.Since(start)
	res.PeakPayload = rp.peak
	res.HeapSize = h.HeapSize()
	if res.HeapSize > 0 {
		res.Utilization = float64(rp.peak) / float64(res.HeapSize)
	}
	res.Stats = h.Stats()
	return res, nil
}

func opError(tr *Trace, i int, op Op, err error) error {
	where := fmt.Sprintf("op %d", i)
	if op.Line > 0 {
		where = fmt.Sprintf("line %d", op.Line)
	}
	name := tr.Name
	if name == "" {
		name = "trace"
	}
	return fmt.Errorf("%s: %s (%s id %d size %d): %w", name, where, op.Kind, op.ID, op.Size, err)
}

func (rp *replayer) apply(op Op) error {
	switch op.Kind {
	case Alloc:
		bp, err := rp.h.Malloc(op.Size)
		if err != nil {
			return err
		}
		return rp.bind(op.ID, bp, op.Size)

	case Free:
		s, ok := rp.live[op.ID]
		if !ok {
			return rp.h.Free(block.Nil)
		}
		if err := rp.verify(s, s.size); err != nil {
			return err
		}
		if err := rp.h.Free(s.bp); err != nil {
			return err
		}
		rp.unbind(s)
		return nil

	case Realloc:
		s, ok := rp.live[op.ID]
		if !ok {
			bp, err := rp.h.Realloc(block.Nil, op.Size)
			if err != nil {
				return err
			}
			return rp.bind(op.ID, bp, op.Size)
		}
		if op.Size == 0 {
			// The block stays allocated and bound to its id.
			_, err := rp.h.Realloc(s.bp, 0)
			return err
		}
		if err := rp.verify(s, s.size); err != nil {
			return err
		}
		bp, err := rp.h.Realloc(s.bp, op.Size)
		if err != nil {
			return err
		}
		rp.unbind(s)
		moved := span{id: op.ID, bp: bp, size: op.Size}
		if err := rp.verify(moved, min(s.size, op.Size)); err != nil {
			return err
		}
		return rp.bind(op.ID, bp, op.Size)

	default:
		return fmt.Errorf("%w: unknown op %s", ErrSyntax, op.Kind)
	}
}

// bind records a new payload, checks it against the heap bounds and all live
// payloads, and fills it with the id's pattern.
func (rp *replayer) bind(id int, bp block.Ref, size int) error {
	s := span{id: id, bp: bp, size: size}
	if size == 0 {
		if bp != block.Nil {
			return fmt.Errorf("%w: zero-size request returned 0x%X", ErrIntegrity, bp)
		}
		rp.live[id] = s
		return nil
	}

	buf, err := rp.h.Payload(bp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	if int(bp)%8 != 0 {
		return fmt.Errorf("%w: payload 0x%X not 8-byte aligned", ErrIntegrity, bp)
	}
	if len(buf) < size {
		return fmt.Errorf("%w: payload 0x%X holds %d bytes, need %d", ErrIntegrity, bp, len(buf), size)
	}

	i, _ := slices.BinarySearchFunc(rp.spans, bp, func(s span, bp block.Ref) int {
		return cmp.Compare(s.bp, bp)
	})
	if i > 0 {
		if prev := rp.spans[i-1]; int(prev.bp)+prev.size > int(bp) {
			return fmt.Errorf("%w: 0x%X+%d runs into 0x%X (id %d)", ErrOverlap, prev.bp, prev.size, bp, id)
		}
	}
	if i < len(rp.spans) {
		if next := rp.spans[i]; int(bp)+size > int(next.bp) {
			return fmt.Errorf("%w: 0x%X+%d runs into 0x%X (id %d)", ErrOverlap, bp, size, next.bp, next.id)
		}
	}
	rp.spans = slices.Insert(rp.spans, i, s)
	rp.live[id] = s

	fillPattern(buf[:size], rp.opts.Seed, id)
	rp.payload += size
	rp.peak = max(rp.peak, rp.payload)
	return nil
}

func (rp *replayer) unbind(s span) {
	delete(rp.live, s.id)
	if s.size == 0 {
		return
	}
	if i, ok := slices.BinarySearchFunc(rp.spans, s.bp, func(x span, bp block.Ref) int {
		return cmp.Compare(x.bp, bp)
	}); ok {
		rp.spans = slices.Delete(rp.spans, i, i+1)
	}
	rp.payload -= s.size
}

// verify checks that the first n bytes of s still hold the id's pattern.
func (rp *replayer) verify(s span, n int) error {
	if n == 0 {
		return nil
	}
	buf, err := rp.h.Payload(s.bp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	if len(buf) < n {
		return fmt.Errorf("%w: payload 0x%X shrank to %d bytes", ErrIntegrity, s.bp, len(buf))
	}
	want := make([]byte, n)
	fillPattern(want, rp.opts.Seed, s.id)
	if !bytes.Equal(buf[:n], want) {
		at := 0
		for at < n && buf[at] == want[at] {
			at++
		}
		return fmt.Errorf("%w: id %d payload 0x%X differs at byte %d", ErrIntegrity, s.id, s.bp, at)
	}
	return nil
}

// fillPattern writes a byte sequence determined by seed and id.
func fillPattern(buf []byte, seed int64, id int) {
	x := uint64(seed)*0x9E3779B97F4A7C15 + uint64(id)*0xBF58476D1CE4E5B9 + 1
	for i := range buf {
		if i%8 == 0 {
			x ^= x >> 31
			x *= 0x94D049BB133111EB
			x ^= x >> 29
		}
		buf[i] = byte(x >> (8 * (i % 8)))
	}
}
