package alloc

import "github.com/joshuapare/btalloc/internal/format"

// findFit scans the whole free list for the smallest FREE block of at least
// asize bytes. Equal sizes keep the first candidate, which is the most
// recently inserted one. Returns false when nothing fits.
func (a *Allocator) findFit(asize int) (int, bool) {
	best, bestSize := 0, 0
	bt, ok := a.linkNext(a.head)
	for ok {
		t := format.ReadTag(a.data, bt)
		if t.Free() && t.Size >= asize && (best == 0 || t.Size < bestSize) {
			best, bestSize = bt, t.Size
			if bestSize == asize {
				break
			}
		}
		bt, ok = a.linkNext(bt)
	}
	return best, best != 0
}

// place marks the first asize bytes of the free block bt USED. A remainder of
// at least MinBlockSize becomes a FREE block that takes over bt's position in
// the free list; anything smaller stays inside the allocation.
func (a *Allocator) place(bt, asize int) {
	csize := format.SizeAt(a.data, bt)

	if csize-asize < format.MinBlockSize {
		a.unlink(bt)
		format.MakeBlock(a.data, bt, csize, format.Used)
		return
	}

	// Read the links before the USED footer can land on top of them.
	prev, _ := a.linkPrev(bt)
	next, _ := a.linkNext(bt)

	format.MakeBlock(a.data, bt, asize, format.Used)
	rest := bt + asize
	format.MakeBlock(a.data, rest, csize-asize, format.Free)
	a.connect(prev, rest)
	a.connect(rest, next)
	if bt == a.last {
		a.last = rest
	}
	a.stats.SplitCount++
}
