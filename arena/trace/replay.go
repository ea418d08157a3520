package trace

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/joshuapare/btalloc/arena/alloc"
	"github.com/joshuapare/btalloc/internal/format"
)

// Allocator is the surface Replay drives. *alloc.Allocator implements it.
type Allocator interface {
	Malloc(size int) (alloc.Ptr, error)
	Free(p alloc.Ptr) error
	Realloc(p alloc.Ptr, size int) (alloc.Ptr, error)
	Payload(p alloc.Ptr) ([]byte, error)
	CheckHeap(verbose bool) error
	HeapSize() int
}

// Options configures a replay.
type Options struct {
	// Check runs CheckHeap after every op.
	Check bool

	// Logger receives one Debug record per op.
	// Default: discard
	Logger *slog.Logger
}

// Result summarizes a successful replay.
type Result struct {
	Name     string
	Ops      int
	PeakLive int           // largest sum of live requested bytes
	HeapSize int           // heap size after the last op
	Elapsed  time.Duration // wall time spent inside allocator calls
}

// Utilization is peak live bytes over final heap size, in [0, 1].
func (r *Result) Utilization() float64 {
	if r.HeapSize == 0 {
		return 0
	}
	return float64(r.PeakLive) / float64(r.HeapSize)
}

// Throughput returns operations per second.
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

type block struct {
	ptr  alloc.Ptr
	size int
}

// Replay runs t against a and checks every result: payloads are aligned,
// large enough, disjoint from every other live payload, and keep their
// contents across realloc until freed. A failing op is reported as *OpError.
func Replay(t *Trace, a Allocator, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	res := &Result{Name: t.Name, Ops: len(t.Ops)}
	live := make(map[int]block, t.NumIDs)
	spans := &spanSet{}
	cur := 0

	for i, op := range t.Ops {
		fail := func(err error) (*Result, error) {
			return nil, &OpError{Index: i, Op: op, Err: err}
		}
		if op.ID < 0 || op.ID >= t.NumIDs {
			return fail(fmt.Errorf("%w: outside [0, %d)", ErrBadID, t.NumIDs))
		}

		switch op.Kind {
		case Alloc:
			if _, ok := live[op.ID]; ok {
				return fail(fmt.Errorf("%w: already allocated", ErrBadID))
			}
			start := time.Now()
			p, err := a.Malloc(op.Size)
			res.Elapsed += time.Since(start)
			if err != nil {
				return fail(err)
			}
			if err := place(a, spans, op, p); err != nil {
				return fail(err)
			}
			live[op.ID] = block{p, op.Size}
			cur += op.Size

		case Realloc:
			old, ok := live[op.ID]
			if !ok {
				return fail(fmt.Errorf("%w: not allocated", ErrBadID))
			}
			if err := checkPattern(a, old.ptr, op.ID, old.size); err != nil {
				return fail(err)
			}
			spans.remove(old.ptr)
			start := time.Now()
			p, err := a.Realloc(old.ptr, op.Size)
			res.Elapsed += time.Since(start)
			if err != nil {
				return fail(err)
			}
			if op.Size == 0 {
				delete(live, op.ID)
				cur -= old.size
				break
			}
			if err := checkPattern(a, p, op.ID, min(old.size, op.Size)); err != nil {
				return fail(fmt.Errorf("content lost across realloc: %w", err))
			}
			if err := place(a, spans, op, p); err != nil {
				return fail(err)
			}
			live[op.ID] = block{p, op.Size}
			cur += op.Size - old.size

		case Free:
			old, ok := live[op.ID]
			if !ok {
				return fail(fmt.Errorf("%w: not allocated", ErrBadID))
			}
			if err := checkPattern(a, old.ptr, op.ID, old.size); err != nil {
				return fail(err)
			}
			spans.remove(old.ptr)
			start := time.Now()
			err := a.Free(old.ptr)
			res.Elapsed += time.Since(start)
			if err != nil {
				return fail(err)
			}
			delete(live, op.ID)
			cur -= old.size

		default:
			return fail(fmt.Errorf("%w: unknown op", ErrSyntax))
		}

		res.PeakLive = max(res.PeakLive, cur)
		if opts.Check {
			if err := a.CheckHeap(false); err != nil {
				return fail(err)
			}
		}
		log.Debug("op", "index", i, "op", op.String(), "live", cur, "heap", a.HeapSize())
	}

	res.HeapSize = a.HeapSize()
	return res, nil
}

// place validates a fresh payload, records its span and fills it with the
// id's pattern.
func place(a Allocator, spans *spanSet, op Op, p alloc.Ptr) error {
	if op.Size == 0 {
		if p != alloc.Nil {
			return fmt.Errorf("%w: zero-size request returned %d", ErrCheck, p)
		}
		return nil
	}
	if p == alloc.Nil {
		return fmt.Errorf("%w: no allocation returned without error", ErrCheck)
	}
	if !format.IsAligned(int(p)) {
		return fmt.Errorf("%w: payload %d not %d-byte aligned", ErrCheck, p, format.Alignment)
	}
	b, err := a.Payload(p)
	if err != nil {
		return err
	}
	if len(b) < op.Size {
		return fmt.Errorf("%w: payload %d holds %d bytes, asked for %d", ErrCheck, p, len(b), op.Size)
	}
	if o, ok := spans.overlaps(int(p), int(p)+op.Size); ok {
		return fmt.Errorf("%w: payload [%d, %d) overlaps live payload [%d, %d)", ErrCheck, p, int(p)+op.Size, o.lo, o.hi)
	}
	spans.insert(span{int(p), int(p) + op.Size})
	fillPattern(b[:op.Size], op.ID)
	return nil
}

func patternByte(id, i int) byte {
	return byte(id*131 + i*7 + 1)
}

func fillPattern(b []byte, id int) {
	for i := range b {
		b[i] = patternByte(id, i)
	}
}

func checkPattern(a Allocator, p alloc.Ptr, id, n int) error {
	if n == 0 {
		return nil
	}
	b, err := a.Payload(p)
	if err != nil {
		return err
	}
	if len(b) < n {
		return fmt.Errorf("%w: payload %d shrank to %d bytes, need %d", ErrCheck, p, len(b), n)
	}
	for i := range n {
		if b[i] != patternByte(id, i) {
			return fmt.Errorf("%w: payload %d byte %d is 0x%02X, want 0x%02X", ErrCheck, p, i, b[i], patternByte(id, i))
		}
	}
	return nil
}

// span is a half-open payload range [lo, hi).
type span struct{ lo, hi int }

// spanSet keeps live payload ranges sorted by start.
type spanSet struct {
	s []span
}

func (ss *spanSet) search(lo int) int {
	return sort.Search(len(ss.s), func(i int) bool { return ss.s[i].lo >= lo })
}

// overlaps returns a live range intersecting [lo, hi), if any. Live ranges
// are disjoint, so only the neighbours of the insertion point can overlap.
func (ss *spanSet) overlaps(lo, hi int) (span, bool) {
	i := ss.search(lo)
	if i < len(ss.s) && ss.s[i].lo < hi {
		return ss.s[i], true
	}
	if i > 0 && ss.s[i-1].hi > lo {
		return ss.s[i-1], true
	}
	return span{}, false
}

func (ss *spanSet) insert(sp span) {
	i := ss.search(sp.lo)
	ss.s = append(ss.s, span{})
	copy(ss.s[i+1:], ss.s[i:])
	ss.s[i] = sp
}

func (ss *spanSet) remove(p alloc.Ptr) {
	i := ss.search(int(p))
	if i < len(ss.s) && ss.s[i].lo == int(p) {
		ss.s = append(ss.s[:i], ss.s[i+1:]...)
	}
}
