package alloc

import "github.com/joshuapare/btalloc/internal/format"

// mergeCase identifies one cell of the coalescing table.
type mergeCase uint8

const (
	mergeNone mergeCase = iota // prev USED, next USED or absent
	mergeNext                  // prev USED, next FREE
	mergePrev                  // prev FREE, next USED or absent
	mergeBoth                  // prev FREE, next FREE
)

func (c mergeCase) String() string {
	switch c {
	case mergeNone:
		return "none"
	case mergeNext:
		return "next"
	case mergePrev:
		return "prev"
	case mergeBoth:
		return "both"
	}
	return "unknown"
}

// mergeTable is keyed by [prevFree][nextFree]. A missing neighbour counts as
// not free: the first block has no predecessor and the top block has no
// successor.
var mergeTable = [2][2]mergeCase{
	{mergeNone, mergeNext},
	{mergePrev, mergeBoth},
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// neighbours returns the physical neighbours of bt and whether each is FREE.
func (a *Allocator) neighbours(bt int) (prev int, prevFree bool, next int, nextFree bool) {
	if p, ok := format.PrevOf(a.data, bt, a.first); ok {
		prev, prevFree = p, format.FreeAt(a.data, p)
	}
	if bt != a.last {
		if n, ok := format.NextOf(a.data, bt); ok {
			next, nextFree = n, format.FreeAt(a.data, n)
		}
	}
	return prev, prevFree, next, nextFree
}

// coalesce merges the FREE block bt with any FREE physical neighbours, links
// the result at the front of the free list and returns its tag. bt must be
// tagged FREE and must not be on the free list yet.
func (a *Allocator) coalesce(bt int) int {
	prev, prevFree, next, nextFree := a.neighbours(bt)
	size := format.SizeAt(a.data, bt)

	c := mergeTable[b2i(prevFree)][b2i(nextFree)]
	switch c {
	case mergeNone:
		a.stats.CoalesceNone++

	case mergeNext:
		size += format.SizeAt(a.data, next)
		a.unlink(next)
		format.MakeBlock(a.data, bt, size, format.Free)
		if next == a.last {
			a.last = bt
		}
		a.stats.CoalesceNext++

	case mergePrev:
		size += format.SizeAt(a.data, prev)
		a.unlink(prev)
		format.MakeBlock(a.data, prev, size, format.Free)
		if bt == a.last {
			a.last = prev
		}
		bt = prev
		a.stats.CoalescePrev++

	case mergeBoth:
		size += format.SizeAt(a.data, prev) + format.SizeAt(a.data, next)
		a.unlink(prev)
		a.unlink(next)
		format.MakeBlock(a.data, prev, size, format.Free)
		if next == a.last {
			a.last = prev
		}
		bt = prev
		a.stats.CoalesceBoth++
	}

	a.pushFront(bt)
	if a.debug {
		a.log.Debug("coalesce", "case", c.String(), "offset", bt, "size", size)
	}
	return bt
}
