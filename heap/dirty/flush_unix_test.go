//go:build unix

package dirty

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/memlib"
)

func TestFlushWritesMappedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.img")
	mf, err := memlib.CreateFile(path, 0)
	require.NoError(t, err)
	defer mf.Close()

	_, err = mf.Grow(3 * 4096)
	require.NoError(t, err)

	tr := NewTracker(mf)
	mf.Bytes()[5000] = 0x42
	tr.Add(5000, 1)

	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, 0, tr.Pending())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), raw[5000])
}
