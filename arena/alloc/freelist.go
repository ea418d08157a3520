package alloc

import (
	"github.com/joshuapare/btalloc/internal/buf"
	"github.com/joshuapare/btalloc/internal/format"
)

// Free-list links live in the first two payload words of every free block and
// in both sentinels. Each link is a signed distance in words from the block's
// own tag; zero means "none".

func (a *Allocator) linkNext(bt int) (int, bool) {
	d := format.ReadI32(a.data, bt+format.NextLinkOffset)
	if d == 0 {
		return 0, false
	}
	return bt + int(d)*format.WordSize, true
}

func (a *Allocator) linkPrev(bt int) (int, bool) {
	d := format.ReadI32(a.data, bt+format.PrevLinkOffset)
	if d == 0 {
		return 0, false
	}
	return bt + int(d)*format.WordSize, true
}

func (a *Allocator) setNext(bt, next int) {
	format.PutI32(a.data, bt+format.NextLinkOffset, int32((next-bt)/format.WordSize))
}

func (a *Allocator) setPrev(bt, prev int) {
	format.PutI32(a.data, bt+format.PrevLinkOffset, int32((prev-bt)/format.WordSize))
}

// connect makes y the list successor of x.
func (a *Allocator) connect(x, y int) {
	a.setNext(x, y)
	a.setPrev(y, x)
}

// pushFront inserts bt directly after the head sentinel.
func (a *Allocator) pushFront(bt int) {
	next, _ := a.linkNext(a.head)
	a.connect(bt, next)
	a.connect(a.head, bt)
}

// unlink splices bt out of the list. Sentinels never reach here: only FREE
// blocks are unlinked and both sentinels are permanently USED.
func (a *Allocator) unlink(bt int) {
	prev, _ := a.linkPrev(bt)
	next, _ := a.linkNext(bt)
	a.connect(prev, next)
}

// FreeBlocks calls fn for every free block in list order, head to tail. It
// stops early when fn returns false, when a link leaves the heap, or after
// more entries than the heap can hold.
func (a *Allocator) FreeBlocks(fn func(BlockInfo) bool) {
	heap := a.data[:a.end]
	limit := a.end / format.MinBlockSize
	bt, ok := a.linkNext(a.head)
	for steps := 0; ok && bt != a.tail && steps < limit; steps++ {
		if !buf.Has(heap, bt, format.MinBlockSize) {
			return
		}
		if !fn(BlockInfo{Offset: bt, Size: format.SizeAt(heap, bt)}) {
			return
		}
		bt, ok = a.linkNext(bt)
	}
}
