package mm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/heap/memlib"
)

// ============================================================================
// Providers and trackers
// ============================================================================

var errInjected = errors.New("injected grow failure")

// failingProvider wraps a Slice and refuses Grow once failAfter grows succeeded
// (failAfter < 0 never fails).
type failingProvider struct {
	*memlib.Slice
	grows     int
	failAfter int
}

func (f *failingProvider) Grow(n int) (int, error) {
	if f.failAfter >= 0 && f.grows >= f.failAfter {
		return 0, errInjected
	}
	f.grows++
	return f.Slice.Grow(n)
}

// movingProvider relocates its region whenever a Grow fails, the way a file
// provider may end up remapped after a failed growth.
type movingProvider struct {
	data []byte
	fail bool
}

func (m *movingProvider) Grow(n int) (int, error) {
	if m.fail {
		m.data = bytes.Clone(m.data)
		return 0, errInjected
	}
	start := len(m.data)
	m.data = append(m.data, make([]byte, n)...)
	return start, nil
}

func (m *movingProvider) Bytes() []byte { return m.data }

func (m *movingProvider) Len() int { return len(m.data) }

// spyTracker records every range reported by the allocator.
type spyTracker struct {
	ranges [][2]int
}

func (s *spyTracker) Add(off, length int) {
	s.ranges = append(s.ranges, [2]int{off, length})
}

func (s *spyTracker) covers(off int) bool {
	for _, r := range s.ranges {
		if off >= r[0] && off < r[0]+r[1] {
			return true
		}
	}
	return false
}

// ============================================================================
// Allocator setup
// ============================================================================

// newTestAllocator returns an initialized allocator over a default Slice.
func newTestAllocator(t testing.TB) *Allocator {
	t.Helper()
	a := New(memlib.NewSlice(0), nil)
	require.NoError(t, a.Init())
	return a
}

// setupGrowCounter installs the onGrow hook and returns the recorded sizes.
func setupGrowCounter(a *Allocator) *[]int {
	var sizes []int
	a.onGrow = func(n int) { sizes = append(sizes, n) }
	return &sizes
}

// mustMalloc allocates and fails the test on error.
func mustMalloc(t testing.TB, a *Allocator, size int) block.Ref {
	t.Helper()
	bp, err := a.Malloc(size)
	require.NoError(t, err, "Malloc(%d)", size)
	require.NotEqual(t, block.Nil, bp, "Malloc(%d) returned Nil", size)
	return bp
}

// requireValid runs the full heap check.
func requireValid(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())
}

// ============================================================================
// Payload patterns
// ============================================================================

func pattern(id, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(id*31 + i)
	}
	return p
}

func fill(t testing.TB, a *Allocator, bp block.Ref, id, n int) {
	t.Helper()
	buf, err := a.Payload(bp)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(buf), n)
	copy(buf, pattern(id, n))
}

func requirePattern(t testing.TB, a *Allocator, bp block.Ref, id, n int) {
	t.Helper()
	buf, err := a.Payload(bp)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(buf), n)
	require.True(t, bytes.Equal(pattern(id, n), buf[:n]), "payload of 0x%X corrupted", bp)
}
