package memlib

import "errors"

// ErrReadOnly indicates a Grow on a read-only Image, or a write through an
// allocator attached to one.
var ErrReadOnly = errors.New("memlib: image is read-only")

// Image is a read-only Provider over an existing heap file. It lets an
// allocator be attached for inspection; any attempt to grow it fails, and
// the caller must not write to Bytes().
type Image struct {
	data    []byte
	cleanup func() error
}

// Grow always fails.
func (im *Image) Grow(int) (int, error) { return 0, ErrReadOnly }

// ReadOnly reports true; the mapping is not writable.
func (im *Image) ReadOnly() bool { return true }

// Bytes returns the image contents.
func (im *Image) Bytes() []byte { return im.data }

// Len returns the image size.
func (im *Image) Len() int { return len(im.data) }

// Close releases the mapping. It is safe to call more than once.
func (im *Image) Close() error {
	if im.cleanup == nil {
		return nil
	}
	err := im.cleanup()
	im.cleanup = nil
	im.data = nil
	return err
}

var (
	_ Provider         = (*Image)(nil)
	_ ReadOnlyProvider = (*Image)(nil)
)
