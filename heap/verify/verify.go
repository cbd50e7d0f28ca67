package verify

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/internal/format"
)

// View is what the checker needs from an allocator.
type View interface {
	// Bytes returns the heap image.
	Bytes() []byte
	// Start returns the payload offset of the prologue block.
	Start() block.Ref
	// FreeList returns the free list from root to top.
	FreeList() []block.Ref
}

// Error types for different validation failures.
const (
	TypePrologue     = "Prologue"
	TypeBlock        = "Block"
	TypeCoalescing   = "Coalescing"
	TypeEpilogue     = "Epilogue"
	TypeConservation = "Conservation"
	TypeFreeList     = "FreeList"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Summary reports what a successful walk saw.
type Summary struct {
	Blocks     int // blocks between prologue and epilogue
	FreeBlocks int
	FreeBytes  int
	AllocBytes int // allocated block bytes, tags included
	HeapBytes  int // bytes from the heap base to the end of the image
}

// Heap validates all invariants and returns the first violation, or nil.
func Heap(v View) error {
	_, err := Walk(v)
	return err
}

// Walk validates all invariants and returns a summary of the heap.
func Walk(v View) (Summary, error) {
	data := v.Bytes()
	start := v.Start()
	var sum Summary

	if err := prologue(data, start); err != nil {
		return sum, err
	}
	base := int(start) - format.DoubleSize
	sum.HeapBytes = len(data) - base

	free := roaring.New()
	prevFree := false
	bp := block.Next(data, start)
	for {
		if int(bp) > len(data) {
			return sum, &ValidationError{
				Type:    TypeConservation,
				Message: fmt.Sprintf("walk ran past the image end (len=%d)", len(data)),
				Offset:  int(bp),
			}
		}
		if int(bp) == len(data) {
			if err := epilogue(data, bp); err != nil {
				return sum, err
			}
			break
		}
		if err := checkBlock(data, bp); err != nil {
			return sum, err
		}

		size := block.Size(data, bp)
		isFree := !block.IsAllocated(data, bp)
		if isFree && prevFree {
			return sum, &ValidationError{
				Type:    TypeCoalescing,
				Message: "adjacent free blocks were not merged",
				Offset:  int(bp),
				Details: map[string]interface{}{"previous": block.Prev(data, bp)},
			}
		}

		sum.Blocks++
		if isFree {
			sum.FreeBlocks++
			sum.FreeBytes += size
			free.Add(bp)
		} else {
			sum.AllocBytes += size
		}
		prevFree = isFree
		bp = block.Next(data, bp)
	}

	if err := freeList(data, v.FreeList(), free); err != nil {
		return sum, err
	}
	return sum, nil
}

func prologue(data []byte, start block.Ref) error {
	if int(start) < format.DoubleSize || int(start)+format.DoubleSize > len(data) {
		return &ValidationError{
			Type:    TypePrologue,
			Message: fmt.Sprintf("heap image too small: %d bytes", len(data)),
			Offset:  int(start),
		}
	}
	want := format.Pack(format.PrologueSize, true)
	hdr := format.ReadU32(data, block.Header(start))
	ftr := format.ReadU32(data, int(start))
	if hdr != want || ftr != want {
		return &ValidationError{
			Type:    TypePrologue,
			Message: fmt.Sprintf("bad prologue tags: header 0x%X footer 0x%X", hdr, ftr),
			Offset:  block.Header(start),
		}
	}
	return nil
}

func epilogue(data []byte, bp block.Ref) error {
	tag := format.ReadU32(data, block.Header(bp))
	if tag != format.Pack(0, true) {
		return &ValidationError{
			Type:    TypeEpilogue,
			Message: fmt.Sprintf("bad epilogue header 0x%X", tag),
			Offset:  block.Header(bp),
		}
	}
	return nil
}

func checkBlock(data []byte, bp block.Ref) error {
	if err := block.Check(data, bp); err != nil {
		return &ValidationError{
			Type:    TypeBlock,
			Message: err.Error(),
			Offset:  int(bp),
		}
	}
	if size := block.Size(data, bp); !format.IsAligned(size) {
		return &ValidationError{
			Type:    TypeBlock,
			Message: fmt.Sprintf("size %d is not a multiple of %d", size, format.DoubleSize),
			Offset:  int(bp),
		}
	}
	return nil
}

func freeList(data []byte, list []block.Ref, walked *roaring.Bitmap) error {
	listed := roaring.New()
	var prev block.Ref
	for i, bp := range list {
		if i > 0 && bp <= prev {
			return &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("entry %d (0x%X) not above its predecessor 0x%X", i, bp, prev),
				Offset:  int(bp),
			}
		}
		if !walked.Contains(bp) {
			state := "not a block"
			if block.Valid(data, bp) && block.IsAllocated(data, bp) {
				state = "allocated"
			}
			return &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("listed block is %s", state),
				Offset:  int(bp),
			}
		}
		listed.Add(bp)
		prev = bp
	}

	if missing := roaring.AndNot(walked, listed); !missing.IsEmpty() {
		return &ValidationError{
			Type:    TypeFreeList,
			Message: fmt.Sprintf("%d free block(s) missing from the list", missing.GetCardinality()),
			Offset:  int(missing.Minimum()),
			Details: map[string]interface{}{"missing": missing.ToArray()},
		}
	}
	return nil
}
