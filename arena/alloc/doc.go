// Package alloc implements a general-purpose allocator over a single growable
// region using boundary tags and an explicit free list.
//
// # Overview
//
// Every block carries a one-word header and a matching footer that pack the
// block size and its USED/FREE status. Free blocks additionally store two
// signed word distances (next, previous) in the first payload words, forming
// an intrusive doubly-linked list anchored by two permanent sentinel blocks.
// Nothing lives outside the region: the allocator keeps only three offsets
// (first block, list head, topmost block).
//
// # Operations
//
//   - Malloc(n): best-fit search over the free list, split or consume the
//     chosen block, grow the region when nothing fits
//   - Free(p): mark the block FREE and coalesce with free neighbours
//   - Realloc(p, n): shrink in place, grow into a free successor, or fall back
//     to allocate-copy-free; the old block survives a failed fallback
//   - Calloc(count, size): overflow-checked Malloc plus zero fill
//   - CheckHeap(verbose): validate every structural invariant
//
// # Layout
//
// Sizes are multiples of 16 bytes and payloads are 16-byte aligned:
//
//	     header        payload ...           footer
//	+-----------+--------------------------+-----------+
//	| size|used |  next | prev | ...       | size|used |
//	+-----------+--------------------------+-----------+
//	^ tag        ^ Ptr (payload offset)
//
// A Ptr is the byte offset of a payload inside the region. Nil (offset 0) is
// never a payload, so it stands in for "no allocation".
//
// # Usage Example
//
//	ar, err := arena.New(arena.DefaultMaxSize)
//	if err != nil {
//	    return err
//	}
//	a, err := alloc.New(ar, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Malloc(100)
//	if err != nil {
//	    return err
//	}
//	buf, _ := a.Payload(p)
//	copy(buf, "hello")
//
//	p, err = a.Realloc(p, 4000)
//	if err != nil {
//	    return err
//	}
//	if err := a.Free(p); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally, or use package pkg/mm which serializes a process-wide
// allocator behind one mutex.
//
// # Related Packages
//
//   - github.com/joshuapare/btalloc/arena: the growable region
//   - github.com/joshuapare/btalloc/arena/verify: heap invariant checks
//   - github.com/joshuapare/btalloc/internal/format: tag codec and layout
package alloc
