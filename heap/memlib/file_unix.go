//go:build unix

package memlib

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a Provider whose region is a file mapped read-write. The file
// length always equals the granted length, so a closed heap file can be
// reopened with OpenFile and attached again.
type File struct {
	f    *os.File
	data []byte
	size int
	max  int
}

// CreateFile creates (or truncates) the heap file at path. max bounds the
// file size; max <= 0 means only the 32-bit offset limit applies.
func CreateFile(path string, max int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{f: f, max: max}, nil
}

// OpenFile maps an existing heap file.
func OpenFile(path string, max int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	mf := &File{f: f, max: max}
	if st.Size() > int64(^uint32(0)) {
		_ = f.Close()
		return nil, fmt.Errorf("memlib: heap file too large to map (%d bytes)", st.Size())
	}
	if err := mf.remap(int(st.Size())); err != nil {
		_ = f.Close()
		return nil, err
	}
	return mf, nil
}

// Grow extends the file by n bytes and remaps it. The new bytes are zero.
func (mf *File) Grow(n int) (int, error) {
	if mf.f == nil {
		return 0, ErrClosed
	}
	start := mf.size
	if err := checkIncrement(start, n, mf.max); err != nil {
		return 0, err
	}
	if n == 0 {
		return start, nil
	}
	// The old mapping stays valid while the file grows underneath it.
	if err := mf.f.Truncate(int64(start + n)); err != nil {
		return 0, fmt.Errorf("%w: truncate: %w", ErrExhausted, err)
	}
	data, err := unix.Mmap(int(mf.f.Fd()), 0, start+n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = mf.f.Truncate(int64(start))
		return 0, fmt.Errorf("%w: remap: %w", ErrExhausted, err)
	}
	if err := mf.unmap(); err != nil {
		_ = unix.Munmap(data)
		_ = mf.f.Truncate(int64(start))
		return 0, err
	}
	mf.data = data
	mf.size = start + n
	return start, nil
}

// Bytes returns the mapped region. Invalidated by Grow, Reset and Close.
func (mf *File) Bytes() []byte { return mf.data }

// Len returns the file (and mapping) length.
func (mf *File) Len() int { return mf.size }

// FD returns the file descriptor, or -1 once closed.
func (mf *File) FD() int {
	if mf.f == nil {
		return -1
	}
	return int(mf.f.Fd())
}

// Reset truncates the file to zero length.
func (mf *File) Reset() error {
	if mf.f == nil {
		return ErrClosed
	}
	if err := mf.unmap(); err != nil {
		return err
	}
	if err := mf.f.Truncate(0); err != nil {
		return fmt.Errorf("memlib: reset: %w", err)
	}
	return nil
}

// Sync flushes the whole mapping and the file descriptor.
func (mf *File) Sync() error {
	if mf.f == nil {
		return ErrClosed
	}
	if len(mf.data) > 0 {
		if err := unix.Msync(mf.data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("memlib: msync: %w", err)
		}
	}
	return mf.f.Sync()
}

// Close unmaps and closes the file. It is safe to call more than once.
func (mf *File) Close() error {
	if mf.f == nil {
		return nil
	}
	err := mf.unmap()
	if cerr := mf.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	mf.f = nil
	return err
}

func (mf *File) remap(size int) error {
	mf.size = size
	if size == 0 {
		mf.data = nil
		return nil
	}
	data, err := unix.Mmap(int(mf.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		mf.size = 0
		return fmt.Errorf("memlib: mmap: %w", err)
	}
	mf.data = data
	return nil
}

func (mf *File) unmap() error {
	if mf.data == nil {
		mf.size = 0
		return nil
	}
	if err := unix.Munmap(mf.data); err != nil {
		return fmt.Errorf("memlib: munmap: %w", err)
	}
	mf.data = nil
	mf.size = 0
	return nil
}

var (
	_ Provider = (*File)(nil)
	_ Resetter = (*File)(nil)
)
