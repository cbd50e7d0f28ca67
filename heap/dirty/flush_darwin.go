//go:build darwin

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges flushes dirty ranges to disk.
//
// On macOS, msync() requires the address to match the original mmap() address,
// so sub-slices cannot be passed. The whole mapping is synced instead; the
// kernel only writes pages that are actually dirty.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := unix.Msync(data, unix.MS_SYNC); err != nil {
		return err
	}
	return unix.Fsync(t.t.FD())
}
