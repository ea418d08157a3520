package alloc

import "log/slog"

// Ptr is a payload handle: the byte offset of a block's payload in the region.
type Ptr int

// Nil is the "no allocation" handle.
const Nil Ptr = 0

// Region is the growth primitive the allocator draws address space from.
//
// Grow must extend the region contiguously by exactly n bytes and return the
// previous end, or fail without changing anything. Bytes returns the current
// region; the allocator re-reads it after every successful Grow.
//
// *arena.Arena implements Region.
type Region interface {
	Grow(n int) (int, error)
	Bytes() []byte
}

// Options configures an Allocator.
type Options struct {
	// Logger receives allocator events at Debug level and heap dumps from
	// CheckHeap(true) at Info level.
	// Default: discard, or stderr when BTALLOC_LOG_ALLOC is set.
	Logger *slog.Logger

	// CoalesceShrink runs the remainder split off by a shrinking Realloc
	// through the coalescer, merging it with a free successor. When false the
	// remainder is only pushed onto the free list and may sit next to another
	// free block.
	// Default: true
	CoalesceShrink bool

	// OnGrow is called with the byte count of every region growth, before the
	// growth primitive runs.
	// Default: nil
	OnGrow func(n int)
}

// DefaultOptions returns the recommended allocator options.
func DefaultOptions() *Options {
	return &Options{
		CoalesceShrink: true,
	}
}

// BlockInfo describes one block in the heap.
type BlockInfo struct {
	Offset int  // tag offset of the header
	Size   int  // total block size including header and footer
	Used   bool // allocation status
}

// Payload returns the handle for the block's payload.
func (b BlockInfo) Payload() Ptr {
	return Ptr(b.Offset + tagSize)
}

// Stats holds allocator counters.
type Stats struct {
	GrowCalls int   // region growths
	GrowBytes int64 // total bytes added by growth

	AllocCalls    int // Malloc calls, including those made by Calloc and Realloc
	AllocFastPath int // served from the free list
	AllocSlowPath int // required growth
	FreeCalls     int
	CallocCalls   int
	ReallocCalls  int

	ReallocSame        int // size class unchanged
	ReallocShrink      int // shrunk in place
	ReallocGrowInPlace int // absorbed a free successor
	ReallocCopy        int // allocate-copy-free fallback

	SplitCount int // blocks split during placement or realloc

	CoalesceNone int // freed block had no free neighbour
	CoalesceNext int // merged with successor
	CoalescePrev int // merged with predecessor
	CoalesceBoth int // merged with both
}
