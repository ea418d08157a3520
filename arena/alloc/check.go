package alloc

import (
	"github.com/joshuapare/btalloc/arena/verify"
	"github.com/joshuapare/btalloc/internal/format"
)

// Layout returns the heap anchors in the form the verify package expects.
func (a *Allocator) Layout() verify.Layout {
	return verify.Layout{
		First: a.first,
		Head:  a.head,
		Tail:  a.tail,
		Last:  a.last,

		AdjacentFree: !a.opts.CoalesceShrink,
	}
}

// CheckHeap validates every structural invariant of the heap and returns the
// first violation as a *verify.ValidationError. With verbose set, each block
// and the free list are logged at Info level, as far as they can be walked.
func (a *Allocator) CheckHeap(verbose bool) error {
	err := verify.AllInvariants(a.data[:a.end], a.Layout())
	if verbose {
		a.dump()
		if err != nil {
			a.log.Info("heap check failed", "error", err)
		}
	}
	return err
}

func (a *Allocator) dump() {
	a.log.Info("heap", "base", a.base, "size", a.HeapSize(), "first", a.first, "last", a.last)
	a.Blocks(func(b BlockInfo) bool {
		a.log.Info("block", "offset", b.Offset, "size", b.Size, "used", b.Used)
		return true
	})
	a.FreeBlocks(func(b BlockInfo) bool {
		a.log.Info("free", "offset", b.Offset, "size", b.Size)
		return true
	})
}

// Blocks calls fn for every block in physical order, first to top. It stops
// early when fn returns false or when it meets a tag it cannot step over.
func (a *Allocator) Blocks(fn func(BlockInfo) bool) {
	if a.last == a.tail {
		return
	}
	heap := a.data[:a.end]
	bt := a.first
	for {
		t, err := format.ParseTag(heap, bt)
		if err != nil || !fn(BlockInfo{Offset: bt, Size: t.Size, Used: t.Used()}) || bt == a.last {
			return
		}
		next := bt + t.Size
		if next > a.last {
			return
		}
		bt = next
	}
}
