package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/btalloc/internal/buf"
	"github.com/joshuapare/btalloc/internal/format"
)

const tagSize = format.TagSize

// maxRequest is the largest payload whose adjusted size still fits a tag word.
const maxRequest = format.MaxBlockSize - format.Overhead - format.AlignmentMask

// Allocator manages one heap inside a Region.
//
// All bookkeeping except three offsets lives inside the region itself: block
// tags, free-list links and both sentinels. The allocator never shrinks the
// region.
type Allocator struct {
	r    Region
	data []byte // r.Bytes() as of the last growth

	base  int // region offset at which the heap starts
	first int // tag of the first real block
	head  int // tag of the head sentinel
	tail  int // tag of the tail sentinel
	last  int // tag of the topmost block, or tail when the heap has no blocks
	end   int // region end as tracked by the allocator

	opts  Options
	log   *slog.Logger
	debug bool
	stats Stats

	// broken is set once the region grows out of place. The heap stays usable
	// but can never be extended again.
	broken error
}

// New creates an allocator on top of r. It grows r once to lay down the two
// sentinel blocks; that is the only way New fails.
//
// The region's current end must be Alignment-aligned so payloads come out
// aligned too. A nil opts selects DefaultOptions.
func New(r Region, opts *Options) (*Allocator, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	a := &Allocator{
		r:    r,
		opts: *opts,
		log:  newLogger(opts.Logger),
	}
	a.debug = debugEnabled(a.log)

	if opts.OnGrow != nil {
		opts.OnGrow(format.InitSize)
	}
	base, err := r.Grow(format.InitSize)
	if err != nil {
		return nil, fmt.Errorf("%w: initial %d bytes: %w", ErrNoSpace, format.InitSize, err)
	}
	if !format.IsAligned(base) {
		return nil, fmt.Errorf("alloc: region end %d is not %d-byte aligned", base, format.Alignment)
	}
	a.stats.GrowCalls++
	a.stats.GrowBytes += format.InitSize

	a.data = r.Bytes()
	a.base = base
	a.end = base + format.InitSize
	if len(a.data) < a.end {
		return nil, fmt.Errorf("%w: region reports %d bytes after growing to %d", ErrNotContiguous, len(a.data), a.end)
	}
	a.head = base + format.HeadSentinelOffset
	a.tail = base + format.TailSentinelOffset
	a.first = base + format.FirstBlockOffset
	a.last = a.tail

	format.MakeBlock(a.data, a.head, format.SentinelSize, format.Used)
	format.MakeBlock(a.data, a.tail, format.SentinelSize, format.Used)
	format.PutI32(a.data, a.head+format.PrevLinkOffset, 0)
	format.PutI32(a.data, a.tail+format.NextLinkOffset, 0)
	a.connect(a.head, a.tail)

	if a.debug {
		a.log.Debug("init", "base", base, "first", a.first, "head", a.head, "tail", a.tail)
	}
	return a, nil
}

// Malloc returns a handle to a block with at least size payload bytes. A zero
// size returns Nil and no error. When no free block fits, the region grows by
// exactly the adjusted size.
func (a *Allocator) Malloc(size int) (Ptr, error) {
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size == 0 {
		return Nil, nil
	}
	a.stats.AllocCalls++
	if size > maxRequest {
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrNoSpace, size)
	}

	asize := format.AdjustedSize(size)
	if bt, ok := a.findFit(asize); ok {
		a.place(bt, asize)
		a.stats.AllocFastPath++
		if a.debug {
			a.log.Debug("malloc", "size", size, "block", asize, "offset", bt, "path", "fit")
		}
		return Ptr(format.PayloadOf(bt)), nil
	}

	bt, err := a.extend(asize)
	if err != nil {
		return Nil, err
	}
	a.place(bt, asize)
	a.stats.AllocSlowPath++
	if a.debug {
		a.log.Debug("malloc", "size", size, "block", asize, "offset", bt, "path", "grow")
	}
	return Ptr(format.PayloadOf(bt)), nil
}

// Free returns the block behind p to the heap and merges it with any free
// neighbours. Freeing Nil does nothing. A handle that does not name a USED
// block in this heap is rejected with ErrBadPtr and changes nothing.
func (a *Allocator) Free(p Ptr) error {
	if p == Nil {
		return nil
	}
	bt, size, err := a.blockOf(p)
	if err != nil {
		return err
	}
	a.stats.FreeCalls++
	format.MakeBlock(a.data, bt, size, format.Free)
	a.coalesce(bt)
	if a.debug {
		a.log.Debug("free", "offset", bt, "size", size)
	}
	return nil
}

// Calloc allocates count*size bytes and zeroes them. Products that overflow
// int fail with ErrOverflow.
func (a *Allocator) Calloc(count, size int) (Ptr, error) {
	a.stats.CallocCalls++
	if count < 0 || size < 0 {
		return Nil, fmt.Errorf("%w: count=%d size=%d", ErrBadSize, count, size)
	}
	n, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		return Nil, fmt.Errorf("%w: %d * %d", ErrOverflow, count, size)
	}
	p, err := a.Malloc(n)
	if err != nil || p == Nil {
		return p, err
	}
	b, err := a.Payload(p)
	if err != nil {
		return Nil, err
	}
	clear(b)
	return p, nil
}

// Payload returns the usable bytes of the block behind p. The slice aliases
// the region and stays valid while the block is allocated.
func (a *Allocator) Payload(p Ptr) ([]byte, error) {
	bt, size, err := a.blockOf(p)
	if err != nil {
		return nil, err
	}
	b, ok := buf.Slice(a.data, format.PayloadOf(bt), format.PayloadCapacity(size))
	if !ok {
		return nil, fmt.Errorf("%w: payload of %d bytes at %d outside heap", ErrBadPtr, size, p)
	}
	return b, nil
}

// UsableSize returns the payload capacity of the block behind p.
func (a *Allocator) UsableSize(p Ptr) (int, error) {
	_, size, err := a.blockOf(p)
	if err != nil {
		return 0, err
	}
	return format.PayloadCapacity(size), nil
}

// HeapSize returns the number of region bytes the heap occupies, sentinels
// included.
func (a *Allocator) HeapSize() int {
	return a.end - a.base
}

// Stats returns a copy of the allocator counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// blockOf resolves p to its tag and block size, checking that it names a
// USED block inside the heap.
func (a *Allocator) blockOf(p Ptr) (int, int, error) {
	off := int(p)
	if off < format.PayloadOf(a.first) || off >= a.end || !format.IsAligned(off-a.base) {
		return 0, 0, fmt.Errorf("%w: %d outside heap [%d, %d)", ErrBadPtr, off, format.PayloadOf(a.first), a.end)
	}
	bt := format.TagOf(off)
	t, err := format.ParseTag(a.data[:a.end], bt)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %d: %w", ErrBadPtr, off, err)
	}
	if bt+t.Size > a.end-tagSize {
		return 0, 0, fmt.Errorf("%w: %d has corrupt header %s", ErrBadPtr, off, t)
	}
	if foot := format.ReadTag(a.data, bt+t.Size-tagSize); foot != t {
		return 0, 0, fmt.Errorf("%w: %d header %s does not match footer %s", ErrBadPtr, off, t, foot)
	}
	if !t.Used() {
		return 0, 0, fmt.Errorf("%w: %d is not allocated", ErrBadPtr, off)
	}
	return bt, t.Size, nil
}
