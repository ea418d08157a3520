package alloc

import (
	"fmt"

	"github.com/joshuapare/btalloc/internal/format"
)

// extend grows the region by size bytes rounded up to Alignment, tags the new
// space as one FREE block that becomes the heap top, and coalesces it with a
// FREE predecessor. Returns the tag of the resulting free block.
//
// A failed growth leaves the heap untouched. A region that grows out of place
// poisons the allocator: the error is kept and returned by every later
// extension without asking the region again.
func (a *Allocator) extend(size int) (int, error) {
	if a.broken != nil {
		return 0, a.broken
	}

	n := format.AlignUp(size)
	if n <= 0 || n > format.MaxBlockSize {
		return 0, fmt.Errorf("%w: extension of %d bytes", ErrNoSpace, size)
	}

	if a.opts.OnGrow != nil {
		a.opts.OnGrow(n)
	}

	prevEnd, err := a.r.Grow(n)
	if err != nil {
		return 0, fmt.Errorf("%w: grow by %d: %w", ErrNoSpace, n, err)
	}
	if prevEnd != a.end {
		a.broken = fmt.Errorf("%w: expected previous end %d, got %d", ErrNotContiguous, a.end, prevEnd)
		a.log.Error("region grew out of place", "expected", a.end, "got", prevEnd)
		return 0, a.broken
	}
	a.data = a.r.Bytes()
	a.end = prevEnd + n

	bt := format.TagOf(prevEnd)
	format.MakeBlock(a.data, bt, n, format.Free)
	a.last = bt

	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(n)
	if a.debug {
		a.log.Debug("grow", "bytes", n, "offset", bt, "heap", a.end)
	}

	return a.coalesce(bt), nil
}
