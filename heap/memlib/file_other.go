//go:build !unix

package memlib

import (
	"fmt"
	"os"
)

// File is a Provider backed by a file. Without mmap the region is held in
// memory and written back on Sync and Close.
type File struct {
	f    *os.File
	data []byte
	max  int
}

// CreateFile creates (or truncates) the heap file at path.
func CreateFile(path string, max int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{f: f, max: max}, nil
}

// OpenFile reads an existing heap file into memory.
func OpenFile(path string, max int) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &File{f: f, data: data, max: max}, nil
}

// Grow extends the region by n zero bytes.
func (mf *File) Grow(n int) (int, error) {
	if mf.f == nil {
		return 0, ErrClosed
	}
	start := len(mf.data)
	if err := checkIncrement(start, n, mf.max); err != nil {
		return 0, err
	}
	mf.data = append(mf.data, make([]byte, n)...)
	return start, nil
}

// Bytes returns the region. Invalidated by Grow.
func (mf *File) Bytes() []byte { return mf.data }

// Len returns the region length.
func (mf *File) Len() int { return len(mf.data) }

// FD returns the file descriptor, or -1 once closed.
func (mf *File) FD() int {
	if mf.f == nil {
		return -1
	}
	return int(mf.f.Fd())
}

// Reset drops the region.
func (mf *File) Reset() error {
	if mf.f == nil {
		return ErrClosed
	}
	mf.data = mf.data[:0]
	return nil
}

// Sync writes the region back to the file.
func (mf *File) Sync() error {
	if mf.f == nil {
		return ErrClosed
	}
	if err := mf.f.Truncate(int64(len(mf.data))); err != nil {
		return fmt.Errorf("memlib: sync: %w", err)
	}
	if _, err := mf.f.WriteAt(mf.data, 0); err != nil {
		return fmt.Errorf("memlib: sync: %w", err)
	}
	return mf.f.Sync()
}

// Close syncs and closes the file.
func (mf *File) Close() error {
	if mf.f == nil {
		return nil
	}
	err := mf.Sync()
	if cerr := mf.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	mf.f = nil
	return err
}

var (
	_ Provider = (*File)(nil)
	_ Resetter = (*File)(nil)
)
