package alloc

import (
	"fmt"

	"github.com/joshuapare/btalloc/internal/format"
)

// Realloc resizes the block behind p to hold at least size bytes and returns
// its handle, which may differ from p. The first min(old payload, size) bytes
// are preserved.
//
// Resolution order:
//  1. size 0 frees p and returns Nil
//  2. p == Nil behaves like Malloc(size)
//  3. same adjusted size returns p
//  4. smaller: shrink in place, splitting off the tail when it is big enough
//  5. larger with a FREE successor that covers the difference: absorb it
//  6. otherwise allocate, copy, free
//
// When step 6 cannot allocate, p stays valid and untouched and the error is
// returned.
func (a *Allocator) Realloc(p Ptr, size int) (Ptr, error) {
	a.stats.ReallocCalls++
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size == 0 {
		return Nil, a.Free(p)
	}
	if p == Nil {
		return a.Malloc(size)
	}

	bt, oldSize, err := a.blockOf(p)
	if err != nil {
		return Nil, err
	}
	if size > maxRequest {
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrNoSpace, size)
	}
	asize := format.AdjustedSize(size)

	switch {
	case asize == oldSize:
		a.stats.ReallocSame++
		return p, nil

	case asize < oldSize:
		a.shrink(bt, oldSize, asize)
		a.stats.ReallocShrink++
		if a.debug {
			a.log.Debug("realloc", "offset", bt, "from", oldSize, "to", asize, "path", "shrink")
		}
		return p, nil
	}

	if a.growInPlace(bt, oldSize, asize) {
		a.stats.ReallocGrowInPlace++
		if a.debug {
			a.log.Debug("realloc", "offset", bt, "from", oldSize, "to", asize, "path", "grow")
		}
		return p, nil
	}

	np, err := a.Malloc(size)
	if err != nil {
		return Nil, err
	}
	// Malloc may have grown the region; a.data is current from here on.
	copy(a.data[np:], a.data[p:int(p)+format.PayloadCapacity(oldSize)])
	format.MakeBlock(a.data, bt, oldSize, format.Free)
	a.coalesce(bt)
	a.stats.ReallocCopy++
	if a.debug {
		a.log.Debug("realloc", "offset", bt, "from", oldSize, "to", asize, "path", "copy", "new", format.TagOf(int(np)))
	}
	return np, nil
}

// shrink trims the USED block bt from oldSize to asize. A tail of at least
// MinBlockSize becomes a FREE block; a smaller one stays inside the
// allocation.
func (a *Allocator) shrink(bt, oldSize, asize int) {
	rest := oldSize - asize
	if rest < format.MinBlockSize {
		return
	}

	format.MakeBlock(a.data, bt, asize, format.Used)
	rem := bt + asize
	format.MakeBlock(a.data, rem, rest, format.Free)
	if bt == a.last {
		a.last = rem
	}
	a.stats.SplitCount++

	if a.opts.CoalesceShrink {
		a.coalesce(rem)
		return
	}
	a.pushFront(rem)
}

// growInPlace extends the USED block bt into a FREE physical successor when
// the two together hold asize bytes. Any leftover of at least MinBlockSize is
// split back off and takes the successor's place in the free list.
func (a *Allocator) growInPlace(bt, oldSize, asize int) bool {
	if bt == a.last {
		return false
	}
	next, ok := format.NextOf(a.data, bt)
	if !ok || !format.FreeAt(a.data, next) {
		return false
	}
	total := oldSize + format.SizeAt(a.data, next)
	if total < asize {
		return false
	}

	if total-asize < format.MinBlockSize {
		a.unlink(next)
		format.MakeBlock(a.data, bt, total, format.Used)
		if next == a.last {
			a.last = bt
		}
		return true
	}

	prev, _ := a.linkPrev(next)
	succ, _ := a.linkNext(next)

	format.MakeBlock(a.data, bt, asize, format.Used)
	rem := bt + asize
	format.MakeBlock(a.data, rem, total-asize, format.Free)
	a.connect(prev, rem)
	a.connect(rem, succ)
	if next == a.last {
		a.last = rem
	}
	a.stats.SplitCount++
	return true
}
