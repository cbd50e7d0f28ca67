package trace

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/heap/mm"
)

func newHeap(t *testing.T) *mm.Allocator {
	t.Helper()
	a := mm.New(memlib.NewSlice(0), nil)
	require.NoError(t, a.Init())
	return a
}

func Test_Replay_Short(t *testing.T) {
	tr, err := Parse(strings.NewReader(shortTrace))
	require.NoError(t, err)
	tr.Name = "short"

	a := newHeap(t)
	res, err := Replay(context.Background(), tr, a, &ReplayOptions{CheckEvery: true})
	require.NoError(t, err)

	assert.Equal(t, "short", res.Name)
	assert.Equal(t, 6, res.Ops)
	assert.Equal(t, 3, res.Allocs)
	assert.Equal(t, 2, res.Frees)
	assert.Equal(t, 1, res.Reallocs)
	// Peak live payload: 640 + 128 while both are bound.
	assert.Equal(t, 768, res.PeakPayload)
	assert.Equal(t, a.HeapSize(), res.HeapSize)
	assert.InDelta(t, 768.0/float64(res.HeapSize), res.Utilization, 1e-9)
	assert.Equal(t, 4, res.Stats.MallocCalls)
	assert.Equal(t, 1, res.Stats.ReallocCalls)
	require.NoError(t, a.Check())
}

func Test_Replay_Generated(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		tr := Generate(GenOptions{Seed: seed, Ops: 2000, MaxSize: 8192, Realloc: 20})
		a := newHeap(t)
		res, err := Replay(context.Background(), tr, a, &ReplayOptions{CheckEvery: seed == 1, Seed: seed})
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, len(tr.Ops), res.Ops)
		assert.Greater(t, res.Utilization, 0.0)
		assert.LessOrEqual(t, res.Utilization, 1.0)

		// Every id is freed at the end, so the heap is one free block again.
		assert.Len(t, a.FreeList(), 1)
		assert.Zero(t, a.Stats().LiveBytes)
	}
}

func Test_Replay_ZeroSizes(t *testing.T) {
	input := "0 2 5 1\na 0 0\nr 0 16\nr 0 0\na 1 8\nf 0\n"
	tr, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	a := newHeap(t)
	_, err = Replay(context.Background(), tr, a, &ReplayOptions{CheckEvery: true})
	require.NoError(t, err)
	// id 1 is still live.
	assert.Equal(t, int64(16), a.Stats().LiveBytes)
}

func Test_Replay_Cancelled(t *testing.T) {
	tr := Generate(GenOptions{Seed: 1, Ops: 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Replay(ctx, tr, newHeap(t), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Ops)
}

func Test_Replay_OutOfMemory(t *testing.T) {
	tr, err := Parse(strings.NewReader("0 1 1 1\na 0 100000\n"))
	require.NoError(t, err)

	a := mm.New(memlib.NewSlice(16*1024), nil)
	require.NoError(t, a.Init())
	_, err = Replay(context.Background(), tr, a, nil)
	require.ErrorIs(t, err, mm.ErrNoSpace)
	assert.Contains(t, err.Error(), "line 2")
}

// overlappingHeap hands out the previous block again for every second request.
type overlappingHeap struct {
	*mm.Allocator
	last  block.Ref
	calls int
}

func (h *overlappingHeap) Malloc(size int) (block.Ref, error) {
	h.calls++
	if h.calls%2 == 0 && h.last != block.Nil {
		return h.last, nil
	}
	bp, err := h.Allocator.Malloc(size)
	h.last = bp
	return bp, err
}

func Test_Replay_DetectsOverlap(t *testing.T) {
	tr, err := Parse(strings.NewReader("0 2 2 1\na 0 64\na 1 64\n"))
	require.NoError(t, err)

	_, err = Replay(context.Background(), tr, &overlappingHeap{Allocator: newHeap(t)}, nil)
	require.ErrorIs(t, err, ErrOverlap)
}

// scribblingHeap flips the first payload byte of every block Realloc returns.
type scribblingHeap struct {
	*mm.Allocator
}

func (h *scribblingHeap) Realloc(bp block.Ref, size int) (block.Ref, error) {
	nbp, err := h.Allocator.Realloc(bp, size)
	if err == nil && nbp != block.Nil {
		buf, _ := h.Allocator.Payload(nbp)
		buf[0] ^= 0xFF
	}
	return nbp, err
}

func Test_Replay_DetectsCorruption(t *testing.T) {
	tr, err := Parse(strings.NewReader("0 1 2 1\na 0 64\nr 0 128\n"))
	require.NoError(t, err)

	_, err = Replay(context.Background(), tr, &scribblingHeap{Allocator: newHeap(t)}, nil)
	require.ErrorIs(t, err, ErrIntegrity)
	assert.Contains(t, err.Error(), "differs at byte 0")
}
