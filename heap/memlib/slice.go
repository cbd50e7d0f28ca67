package memlib

// Slice is an in-process Provider backed by a byte slice with a ceiling.
type Slice struct {
	buf []byte
	max int
}

// NewSlice reserves a region of max bytes (DefaultMaxHeap when max <= 0).
// Nothing is granted until the first Grow.
func NewSlice(max int) *Slice {
	if max <= 0 {
		max = DefaultMaxHeap
	}
	return &Slice{
		buf: make([]byte, 0, max),
		max: max,
	}
}

// Grow extends the granted region by n bytes.
func (s *Slice) Grow(n int) (int, error) {
	start := len(s.buf)
	if err := checkIncrement(start, n, s.max); err != nil {
		return 0, err
	}
	s.buf = s.buf[:start+n]
	// A Reset region may hold stale bytes from an earlier run.
	clear(s.buf[start:])
	return start, nil
}

// Bytes returns the granted region.
func (s *Slice) Bytes() []byte { return s.buf }

// Len returns the number of granted bytes.
func (s *Slice) Len() int { return len(s.buf) }

// Cap returns the ceiling.
func (s *Slice) Cap() int { return s.max }

// Reset drops all granted bytes.
func (s *Slice) Reset() error {
	s.buf = s.buf[:0]
	return nil
}

var (
	_ Provider = (*Slice)(nil)
	_ Resetter = (*Slice)(nil)
)
