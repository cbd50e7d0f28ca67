package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

// newImage lays out: pad | prologue (bp 8) | A alloc 24 (bp 16) | B free 32 (bp 40) | epilogue (bp 72).
func newImage(t *testing.T) []byte {
	t.Helper()
	data := make([]byte, 72)
	SetTags(data, 8, format.PrologueSize, true)
	SetTags(data, 16, 24, true)
	SetTags(data, 40, 32, false)
	SetHeader(data, 72, 0, true)
	return data
}

func TestTagAccessors(t *testing.T) {
	data := newImage(t)

	assert.Equal(t, 12, Header(16))
	assert.Equal(t, 32, Footer(data, 16))
	assert.Equal(t, 24, Size(data, 16))
	assert.True(t, IsAllocated(data, 16))
	assert.False(t, IsAllocated(data, 40))
	assert.Equal(t, format.ReadU32(data, Header(40)), format.ReadU32(data, Footer(data, 40)))
}

func TestNavigation(t *testing.T) {
	data := newImage(t)

	assert.Equal(t, Ref(40), Next(data, 16))
	assert.Equal(t, Ref(72), Next(data, 40))
	assert.Equal(t, Ref(16), Prev(data, 40))
	assert.Equal(t, Ref(8), Prev(data, 16))

	assert.True(t, PrevAllocated(data, 16), "prologue is allocated")
	assert.True(t, PrevAllocated(data, 40))
	assert.False(t, NextAllocated(data, 16))
	assert.True(t, NextAllocated(data, 40), "epilogue is allocated")
}

func TestPayloadWindow(t *testing.T) {
	data := newImage(t)

	p := Payload(data, 16)
	require.Len(t, p, 24-format.Overhead)
	assert.Equal(t, 16, Capacity(data, 16))

	for i := range p {
		p[i] = 0xAB
	}
	// Writing the whole payload must leave both neighbours' tags intact.
	assert.Equal(t, 24, Size(data, 16))
	assert.Equal(t, 32, Size(data, 40))
	assert.Equal(t, format.Pack(format.PrologueSize, true), format.ReadU32(data, 8))
}

func TestCheck(t *testing.T) {
	data := newImage(t)

	require.NoError(t, Check(data, 16))
	require.NoError(t, Check(data, 40))
	assert.True(t, Valid(data, 16))

	assert.ErrorIs(t, Check(data, 17), format.ErrMisaligned)
	assert.ErrorIs(t, Check(data, 200), format.ErrTruncated)
	assert.Error(t, Check(data, 72), "epilogue is not a block")

	format.PutTag(data, Footer(data, 40), 32, true)
	assert.Error(t, Check(data, 40), "footer mismatch must be caught")
}
