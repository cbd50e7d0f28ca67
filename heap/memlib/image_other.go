//go:build !unix

package memlib

import "os"

// MapImage reads the entire heap file when mmap is not available.
func MapImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Image{data: data}, nil
}
