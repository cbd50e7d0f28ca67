package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the container format of a trace file.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

// CompressionFor picks the format from the file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// Name derives a trace name from its path: the base name without the
// compression and .rep extensions.
func Name(path string) string {
	name := filepath.Base(path)
	if CompressionFor(name) != None {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.TrimSuffix(name, ".rep")
}

// Open reads and parses the trace at path, decompressing by extension.
func Open(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompressor(f, CompressionFor(path))
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	defer r.Close()

	tr, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tr.Name = Name(path)
	return tr, nil
}

// Save writes tr to path, compressing by extension.
func Save(path string, tr *Trace) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := compressor(f, CompressionFor(path))
	if err != nil {
		return fmt.Errorf("trace: save %s: %w", path, err)
	}
	if err := Write(w, tr); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func decompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case None:
		return io.NopCloser(r), nil
	default:
		return nil, errors.New("unknown compression")
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case LZ4:
		return lz4.NewWriter(w), nil
	case None:
		return nopWriteCloser{w}, nil
	default:
		return nil, errors.New("unknown compression")
	}
}
