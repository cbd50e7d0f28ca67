// Package verify provides consistency checks for heap images managed by the
// explicit free-list allocator.
//
// # Overview
//
// Heap walks every block from the prologue to the epilogue and cross-checks
// the walk against the allocator's free list:
//
//   - Boundary markers: prologue tags are Pack(8, allocated), the epilogue
//     header is Pack(0, allocated) and is the last word of the image
//   - Blocks: payload offsets 8-aligned, sizes a multiple of 8 and at least
//     16 bytes, header equal to footer
//   - Coalescing: no two address-adjacent blocks are both free
//   - Free list: strictly ascending addresses, and exactly the set of free
//     blocks found by the walk
//   - Conservation: the blocks plus the pad and epilogue cover every granted
//     byte from the heap base
//
// # Usage
//
//	if err := verify.Heap(allocator); err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s at 0x%X: %s\n", verr.Type, verr.Offset, verr.Message)
//	    }
//	}
//
// The allocator's Check method calls Heap on itself; tests and the heapctl
// check command call it after every operation.
package verify
