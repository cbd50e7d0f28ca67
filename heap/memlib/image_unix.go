//go:build unix

package memlib

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapImage maps the heap file at path read-only.
func MapImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // the mapping keeps the pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return &Image{data: []byte{}}, nil
	}
	if size > int64(^uint32(0)) {
		return nil, fmt.Errorf("memlib: heap file too large to map (%d bytes)", size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("memlib: mmap: %w", err)
	}
	cleanup := func() error {
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			return nil
		}
		return err
	}
	return &Image{data: data, cleanup: cleanup}, nil
}
