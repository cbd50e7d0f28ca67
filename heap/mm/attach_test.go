package mm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/internal/format"
)

func Test_Attach_RebuildsFreeList(t *testing.T) {
	a := newTestAllocator(t)
	var refs []block.Ref
	for i := range 12 {
		bp := mustMalloc(t, a, 20+i*30)
		fill(t, a, bp, i, 20+i*30)
		refs = append(refs, bp)
	}
	for i := 0; i < len(refs); i += 3 {
		require.NoError(t, a.Free(refs[i]))
	}

	b, err := Attach(a.p, nil)
	require.NoError(t, err)
	assert.Equal(t, a.FreeList(), b.FreeList())
	assert.Equal(t, a.Root(), b.Root())
	assert.Equal(t, a.Top(), b.Top())
	assert.Equal(t, a.Stats().LiveBytes, b.Stats().LiveBytes)
	assert.Equal(t, a.HeapSize(), b.HeapSize())

	for i := 1; i < len(refs); i++ {
		if i%3 == 0 {
			continue
		}
		requirePattern(t, b, refs[i], i, 20+i*30)
	}

	// The attached allocator keeps working.
	bp := mustMalloc(t, b, 20)
	assert.Equal(t, refs[0], bp)
	requireValid(t, b)
}

func Test_Attach_Empty(t *testing.T) {
	_, err := Attach(memlib.NewSlice(0), nil)
	require.ErrorIs(t, err, ErrCorrupt)
}

func Test_Attach_BadPrologue(t *testing.T) {
	a := newTestAllocator(t)
	format.PutTag(a.Bytes(), 4, 16, true)

	_, err := Attach(a.p, nil)
	require.ErrorIs(t, err, ErrCorrupt)
}

func Test_Attach_UncoalescedImage(t *testing.T) {
	a := newTestAllocator(t)
	p := mustMalloc(t, a, 16)
	q := mustMalloc(t, a, 16)
	mustMalloc(t, a, 16)

	// Mark two neighbors free behind the allocator's back.
	block.SetTags(a.Bytes(), p, 24, false)
	block.SetTags(a.Bytes(), q, 24, false)

	_, err := Attach(a.p, nil)
	require.ErrorIs(t, err, ErrCorrupt)
}
