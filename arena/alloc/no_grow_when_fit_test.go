package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNoGrowWhenFit verifies the region only grows when the free list has no
// block large enough for the request.
func TestNoGrowWhenFit(t *testing.T) {
	grows := 0
	opts := DefaultOptions()
	opts.OnGrow = func(int) { grows++ }
	a := newTestAllocatorWithOptions(t, 1<<16, opts)

	p := carve(t, a, 1000, 200, 40)
	for _, q := range p {
		mustFree(t, a, q)
	}
	baseline := grows
	size := a.HeapSize()

	for _, n := range []int{1, 8, 9, 40, 100, 200, 500, 900} {
		got := mustMalloc(t, a, n)
		require.NotEqual(t, Nil, got)
		assert.Equal(t, baseline, grows, "Malloc(%d) grew the region although a block fit", n)
		assert.Equal(t, size, a.HeapSize())
		mustFree(t, a, got)
		assertInvariants(t, a)
	}

	// Nothing free is large enough for this one.
	mustMalloc(t, a, 2000)
	assert.Equal(t, baseline+1, grows)
	assert.Greater(t, a.HeapSize(), size)
	assertInvariants(t, a)
}

// TestNoGrowWhenFit_Stats checks the fast/slow path counters.
func TestNoGrowWhenFit_Stats(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	p := mustMalloc(t, a, 64)
	mustMalloc(t, a, 8)
	mustFree(t, a, p)
	mustMalloc(t, a, 64)

	st := a.Stats()
	assert.Equal(t, 3, st.AllocCalls)
	assert.Equal(t, 2, st.AllocSlowPath)
	assert.Equal(t, 1, st.AllocFastPath)
	assert.Equal(t, 1, st.FreeCalls)
}
