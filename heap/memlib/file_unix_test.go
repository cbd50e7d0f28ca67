//go:build unix

package memlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileGrowPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.img")

	mf, err := CreateFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, mf.Len())

	start, err := mf.Grow(16)
	require.NoError(t, err)
	assert.Equal(t, 0, start)

	start, err = mf.Grow(4096)
	require.NoError(t, err)
	assert.Equal(t, 16, start)

	data := mf.Bytes()
	require.Len(t, data, 4112)
	data[100] = 0x5A
	require.NoError(t, mf.Sync())
	require.NoError(t, mf.Close())
	require.NoError(t, mf.Close(), "Close is idempotent")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 4112)
	assert.Equal(t, byte(0x5A), raw[100])

	reopened, err := OpenFile(path, 0)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 4112, reopened.Len())
	assert.Equal(t, byte(0x5A), reopened.Bytes()[100])
}

func TestFileCeiling(t *testing.T) {
	mf, err := CreateFile(filepath.Join(t.TempDir(), "heap.img"), 64)
	require.NoError(t, err)
	defer mf.Close()

	_, err = mf.Grow(48)
	require.NoError(t, err)
	_, err = mf.Grow(32)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 48, mf.Len())
	assert.Len(t, mf.Bytes(), 48, "mapping survives a refused grow")
}

func TestFileReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.img")
	mf, err := CreateFile(path, 0)
	require.NoError(t, err)
	defer mf.Close()

	_, err = mf.Grow(64)
	require.NoError(t, err)
	require.NoError(t, mf.Reset())
	assert.Equal(t, 0, mf.Len())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Size())
}

func TestFileClosed(t *testing.T) {
	mf, err := CreateFile(filepath.Join(t.TempDir(), "heap.img"), 0)
	require.NoError(t, err)
	require.NoError(t, mf.Close())

	_, err = mf.Grow(8)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, -1, mf.FD())
}

func TestFileGrowTruncateFailureKeepsMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.img")
	mf, err := CreateFile(path, 0)
	require.NoError(t, err)
	defer mf.Close()

	_, err = mf.Grow(64)
	require.NoError(t, err)
	mf.Bytes()[10] = 0x42

	// Truncate through a read-only descriptor fails.
	rw := mf.f
	ro, err := os.Open(path)
	require.NoError(t, err)
	mf.f = ro
	_, err = mf.Grow(4096)
	mf.f = rw
	require.NoError(t, ro.Close())

	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 64, mf.Len())
	require.Len(t, mf.Bytes(), 64)
	assert.Equal(t, byte(0x42), mf.Bytes()[10])

	_, err = mf.Grow(64)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), mf.Bytes()[10])
}
