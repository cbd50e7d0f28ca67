package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind is the operation type of a trace line.
type Kind byte

// Operation kinds, spelled as in the file.
const (
	Alloc   Kind = 'a'
	Free    Kind = 'f'
	Realloc Kind = 'r'
)

// maxPrealloc caps the op slice reserved from the header count; the count
// itself is only trusted once every op line has been read.
const maxPrealloc = 1 << 16

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Free:
		return "free"
	case Realloc:
		return "realloc"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one trace operation.
type Op struct {
	Kind Kind
	ID   int
	Size int // zero for Free
	Line int // 1-based source line, zero for generated traces
}

// Trace is a parsed trace file.
type Trace struct {
	Name          string
	SuggestedHeap int
	NumIDs        int
	Weight        int
	Ops           []Op
}

// Parse reads a trace in text form. Ids must lie in [0, NumIDs), sizes must
// be non-negative, an id may not be allocated twice without a free in between
// and the number of operations must match the header.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var header [4]int
	line := 0
	got := 0
	tr := &Trace{}
	live := map[int]bool{}

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		if got < len(header) {
			for _, f := range fields {
				if got == len(header) {
					return nil, fmt.Errorf("%w: line %d: trailing header field %q", ErrSyntax, line, f)
				}
				n, err := strconv.Atoi(f)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: line %d: bad header value %q", ErrSyntax, line, f)
				}
				header[got] = n
				got++
			}
			if got == len(header) {
				tr.SuggestedHeap, tr.NumIDs, tr.Weight = header[0], header[1], header[3]
				tr.Ops = make([]Op, 0, min(header[2], maxPrealloc))
			}
			continue
		}

		op, err := parseOp(fields, line, tr.NumIDs)
		if err != nil {
			return nil, err
		}
		switch op.Kind {
		case Alloc:
			if live[op.ID] {
				return nil, fmt.Errorf("%w: line %d: id %d allocated twice", ErrSyntax, line, op.ID)
			}
			live[op.ID] = true
		case Free:
			delete(live, op.ID)
		case Realloc:
			live[op.ID] = true
		}
		tr.Ops = append(tr.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}
	if got < len(header) {
		return nil, fmt.Errorf("%w: incomplete header (%d of %d values)", ErrSyntax, got, len(header))
	}
	if len(tr.Ops) != header[2] {
		return nil, fmt.Errorf("%w: header announces %d ops, found %d", ErrSyntax, header[2], len(tr.Ops))
	}
	return tr, nil
}

func parseOp(fields []string, line, numIDs int) (Op, error) {
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("%w: line %d: unknown op %q", ErrSyntax, line, fields[0])
	}
	op := Op{Kind: Kind(fields[0][0]), Line: line}

	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, fmt.Errorf("%w: line %d: unknown op %q", ErrSyntax, line, fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%w: line %d: %s takes %d fields, got %d", ErrSyntax, line, op.Kind, want-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 || id >= numIDs {
		return Op{}, fmt.Errorf("%w: line %d: id %q outside [0,%d)", ErrSyntax, line, fields[1], numIDs)
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("%w: line %d: bad size %q", ErrSyntax, line, fields[2])
		}
		op.Size = size
	}
	return op, nil
}

// Write renders tr in text form.
func Write(w io.Writer, tr *Trace) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%d\n", tr.SuggestedHeap, tr.NumIDs, len(tr.Ops), tr.Weight)
	for _, op := range tr.Ops {
		if op.Kind == Free {
			fmt.Fprintf(bw, "%c %d\n", op.Kind, op.ID)
			continue
		}
		fmt.Fprintf(bw, "%c %d %d\n", op.Kind, op.ID, op.Size)
	}
	return bw.Flush()
}

// Counts returns how many operations of each kind tr holds.
func (tr *Trace) Counts() (allocs, frees, reallocs int) {
	for _, op := range tr.Ops {
		switch op.Kind {
		case Alloc:
			allocs++
		case Free:
			frees++
		case Realloc:
			reallocs++
		}
	}
	return allocs, frees, reallocs
}
