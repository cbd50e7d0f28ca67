package mm

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/internal/format"
)

type liveBlock struct {
	bp   block.Ref
	size int // requested payload size
}

// Test_Property_RandomOps runs a fixed-seed mix of malloc, free and realloc
// and checks the heap invariants after every step.
func Test_Property_RandomOps(t *testing.T) {
	seeds := []int64{1, 7, 42}
	for _, seed := range seeds {
		a := newTestAllocator(t)
		rng := rand.New(rand.NewSource(seed))
		live := map[int]liveBlock{}
		var ids []int
		nextID := 0

		for step := range 3000 {
			r := rng.Intn(100)
			switch {
			case len(ids) == 0 || r < 50:
				size := 1 + rng.Intn(512)
				if rng.Intn(20) == 0 {
					size = 1 + rng.Intn(12000)
				}
				fits := hasFit(a, format.AdjustedSize(size))
				grows := a.Stats().GrowCalls

				bp := mustMalloc(t, a, size)
				if fits {
					require.Equal(t, grows, a.Stats().GrowCalls,
						"seed %d step %d: grew although a block fit", seed, step)
				}
				fill(t, a, bp, nextID, size)
				live[nextID] = liveBlock{bp, size}
				ids = append(ids, nextID)
				nextID++

			case r < 80:
				i := rng.Intn(len(ids))
				id := ids[i]
				requirePattern(t, a, live[id].bp, id, live[id].size)
				require.NoError(t, a.Free(live[id].bp))
				delete(live, id)
				ids = slices.Delete(ids, i, i+1)

			default:
				id := ids[rng.Intn(len(ids))]
				old := live[id]
				size := 1 + rng.Intn(1024)
				bp, err := a.Realloc(old.bp, size)
				require.NoError(t, err)
				requirePattern(t, a, bp, id, min(old.size, size))
				fill(t, a, bp, id, size)
				live[id] = liveBlock{bp, size}
			}

			require.NoError(t, a.Check(), "seed %d step %d", seed, step)
			if step%100 == 0 {
				requireDisjoint(t, a, live)
				for id, lb := range live {
					requirePattern(t, a, lb.bp, id, lb.size)
				}
			}
		}

		// Free everything: the heap collapses back to one free block.
		for _, id := range ids {
			require.NoError(t, a.Free(live[id].bp))
		}
		require.Equal(t, []block.Ref{16}, a.FreeList())
		require.NoError(t, a.Check())
	}
}

func hasFit(a *Allocator, asize int) bool {
	for _, bp := range a.FreeList() {
		if block.Size(a.Bytes(), bp) >= asize {
			return true
		}
	}
	return false
}

// requireDisjoint checks that no two live blocks overlap, tags included.
func requireDisjoint(t *testing.T, a *Allocator, live map[int]liveBlock) {
	t.Helper()
	refs := make([]block.Ref, 0, len(live))
	for _, lb := range live {
		refs = append(refs, lb.bp)
	}
	slices.Sort(refs)
	for i := 1; i < len(refs); i++ {
		end := int(refs[i-1]) + block.Size(a.Bytes(), refs[i-1]) - format.WordSize
		require.LessOrEqual(t, end, block.Header(refs[i]),
			"blocks 0x%X and 0x%X overlap", refs[i-1], refs[i])
	}
}
