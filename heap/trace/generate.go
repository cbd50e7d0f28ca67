package trace

import "math/rand"

// GenOptions shapes a synthetic trace.
type GenOptions struct {
	Seed    int64
	Ops     int // approximate operation count before the final frees
	MaxSize int // largest request size
	Realloc int // percentage of operations that are reallocs
}

// Generate builds a well-formed random trace: every id is allocated at most
// once before it is freed, and all blocks still live at the end are freed.
func Generate(opts GenOptions) *Trace {
	if opts.Ops <= 0 {
		opts.Ops = 1000
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 4096
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	size := func() int {
		// Mostly small requests with an occasional large one.
		if rng.Intn(10) == 0 {
			return 1 + rng.Intn(opts.MaxSize)
		}
		return 1 + rng.Intn(max(1, opts.MaxSize/16))
	}

	tr := &Trace{Name: "generated", Weight: 1}
	var live []int
	next := 0
	peak := 0
	cur := map[int]int{}
	payload := 0

	for range opts.Ops {
		r := rng.Intn(100)
		switch {
		case len(live) == 0 || r < 50:
			n := size()
			tr.Ops = append(tr.Ops, Op{Kind: Alloc, ID: next, Size: n})
			live = append(live, next)
			cur[next] = n
			payload += n
			next++
		case r < 50+opts.Realloc:
			id := live[rng.Intn(len(live))]
			n := size()
			tr.Ops = append(tr.Ops, Op{Kind: Realloc, ID: id, Size: n})
			payload += n - cur[id]
			cur[id] = n
		default:
			i := rng.Intn(len(live))
			id := live[i]
			tr.Ops = append(tr.Ops, Op{Kind: Free, ID: id})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			payload -= cur[id]
			delete(cur, id)
		}
		peak = max(peak, payload)
	}
	for _, id := range live {
		tr.Ops = append(tr.Ops, Op{Kind: Free, ID: id})
	}

	tr.NumIDs = next
	tr.SuggestedHeap = peak
	return tr
}
