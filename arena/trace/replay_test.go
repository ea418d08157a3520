package trace

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/joshuapare/btalloc/arena"
	"github.com/joshuapare/btalloc/arena/alloc"
)

func newAllocator(t *testing.T, maxSize int) *alloc.Allocator {
	t.Helper()
	ar, err := arena.New(maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ar.Close() })
	a, err := alloc.New(ar, nil)
	require.NoError(t, err)
	return a
}

func TestReplay_Sample(t *testing.T) {
	tr, err := Parse(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	res, err := Replay(tr, newAllocator(t, 1<<16), Options{Check: true})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Ops)
	assert.Equal(t, 640+128, res.PeakLive)
	assert.Positive(t, res.HeapSize)
	assert.Greater(t, res.Utilization(), 0.0)
	assert.LessOrEqual(t, res.Utilization(), 1.0)
}

func TestReplay_Generated(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		tr := Generate(rand.New(rand.NewSource(seed)), 3000, 2048)
		res, err := Replay(tr, newAllocator(t, 8<<20), Options{Check: true})
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, len(tr.Ops), res.Ops)
		assert.LessOrEqual(t, res.Utilization(), 1.0)
	}
}

func TestReplay_ZeroSizeOps(t *testing.T) {
	tr := &Trace{NumIDs: 2, Ops: []Op{
		{Alloc, 0, 0},
		{Realloc, 0, 40},
		{Alloc, 1, 16},
		{Realloc, 1, 0},
		{Free, 0, 0},
	}}
	_, err := Replay(tr, newAllocator(t, 4096), Options{Check: true})
	require.NoError(t, err)
}

func TestReplay_BadIDs(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
		idx  int
	}{
		{"free dead id", []Op{{Free, 0, 0}}, 0},
		{"realloc dead id", []Op{{Realloc, 0, 8}}, 0},
		{"double alloc", []Op{{Alloc, 0, 8}, {Alloc, 0, 8}}, 1},
		{"id out of range", []Op{{Alloc, 5, 8}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Trace{NumIDs: 1, Ops: tt.ops}
			_, err := Replay(tr, newAllocator(t, 4096), Options{})
			require.ErrorIs(t, err, ErrBadID)

			var oe *OpError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, tt.idx, oe.Index)
		})
	}
}

func TestReplay_OutOfMemory(t *testing.T) {
	tr := &Trace{NumIDs: 1, Ops: []Op{{Alloc, 0, 10000}}}
	_, err := Replay(tr, newAllocator(t, 4096), Options{})
	require.ErrorIs(t, err, alloc.ErrNoSpace)
	assert.Contains(t, err.Error(), "op 0 (a 0 10000)")
}

// overlapping hands out the same payload twice.
type overlapping struct {
	*alloc.Allocator
	last alloc.Ptr
}

func (o *overlapping) Malloc(size int) (alloc.Ptr, error) {
	if o.last != alloc.Nil {
		return o.last, nil
	}
	p, err := o.Allocator.Malloc(size)
	o.last = p
	return p, err
}

func TestReplay_DetectsOverlap(t *testing.T) {
	tr := &Trace{NumIDs: 2, Ops: []Op{{Alloc, 0, 8}, {Alloc, 1, 8}}}
	_, err := Replay(tr, &overlapping{Allocator: newAllocator(t, 4096)}, Options{})
	require.ErrorIs(t, err, ErrCheck)
	assert.Contains(t, err.Error(), "overlaps")
}

// scribbling flips the first payload byte of the first allocation on every
// later Malloc.
type scribbling struct {
	*alloc.Allocator
	victim alloc.Ptr
}

func (s *scribbling) Malloc(size int) (alloc.Ptr, error) {
	p, err := s.Allocator.Malloc(size)
	if s.victim == alloc.Nil {
		s.victim = p
	} else if b, perr := s.Allocator.Payload(s.victim); perr == nil {
		b[0] ^= 0xFF
	}
	return p, err
}

func TestReplay_DetectsCorruptedPayload(t *testing.T) {
	tr := &Trace{NumIDs: 2, Ops: []Op{{Alloc, 0, 8}, {Alloc, 1, 8}, {Free, 0, 0}}}
	_, err := Replay(tr, &scribbling{Allocator: newAllocator(t, 4096)}, Options{})
	require.ErrorIs(t, err, ErrCheck)

	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, 2, oe.Index)
}

func TestWriteReport(t *testing.T) {
	rows := []Row{
		{Result: &Result{Name: "amptjp.rep", Ops: 12345, PeakLive: 900, HeapSize: 1000, Elapsed: time.Millisecond}},
		{Name: "broken.rep", Err: ErrCheck},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rows, language.English))
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Kops/s")
	assert.Contains(t, lines[1], "amptjp.rep")
	assert.Contains(t, lines[1], "90.0%")
	assert.Contains(t, lines[1], "12,345")
	assert.Contains(t, lines[2], "broken.rep")
	assert.Contains(t, lines[2], "no")
	assert.Contains(t, lines[3], "1/2")
}

func TestResult_ZeroValues(t *testing.T) {
	var r Result
	assert.Zero(t, r.Utilization())
	assert.Zero(t, r.Throughput())
}
