// Package verify provides validation functions for boundary-tag heaps.
//
// # Overview
//
// The checks read only the raw region bytes plus the four anchor offsets the
// allocator keeps outside it (first block, head and tail sentinel, top
// block). They never modify the heap, so they are safe to run after every
// operation in tests and trace replays.
//
// Validation categories:
//   - Sentinels: both USED, 16 bytes, outer links zero
//   - Blocks: header equals footer, size and payload aligned, no adjacent
//     free blocks, top block flush with the region end
//   - FreeList: forward and back links agree, every entry FREE, every FREE
//     block listed exactly once, no cycles
//
// # Quick Start
//
//	l := verify.Layout{First: 44, Head: 12, Tail: 28, Last: top}
//	if err := verify.AllInvariants(region, l); err != nil {
//	    fmt.Printf("heap corrupt: %v\n", err)
//	}
//
// Most callers go through (*alloc.Allocator).CheckHeap, which fills in the
// layout itself.
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string                 // check that failed (e.g., "Blocks")
//	    Message string                 // human-readable description
//	    Offset  int                    // region offset of the bad tag (-1 if N/A)
//	    Details map[string]interface{} // additional context
//	}
package verify
