package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/btalloc/arena"
	"github.com/joshuapare/btalloc/internal/format"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh slice-backed arena of
// maxSize bytes. The heap starts at region offset 0, so the first payload is
// at format.HeapStart.
func newTestAllocator(t testing.TB, maxSize int) *Allocator {
	t.Helper()
	return newTestAllocatorWithOptions(t, maxSize, DefaultOptions())
}

func newTestAllocatorWithOptions(t testing.TB, maxSize int, opts *Options) *Allocator {
	t.Helper()

	ar, err := arena.New(maxSize)
	require.NoError(t, err, "arena.New")
	t.Cleanup(func() { _ = ar.Close() })

	a, err := New(ar, opts)
	require.NoError(t, err, "alloc.New")
	return a
}

// ============================================================================
// Assertions
// ============================================================================

// assertInvariants fails the test when the heap violates any invariant.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.CheckHeap(false), "heap invariants violated")
}

// mustMalloc allocates or fails the test.
func mustMalloc(t testing.TB, a *Allocator, size int) Ptr {
	t.Helper()
	p, err := a.Malloc(size)
	require.NoError(t, err, "Malloc(%d)", size)
	require.NotEqual(t, Nil, p, "Malloc(%d) returned Nil", size)
	return p
}

// mustFree frees or fails the test.
func mustFree(t testing.TB, a *Allocator, p Ptr) {
	t.Helper()
	require.NoError(t, a.Free(p), "Free(%d)", p)
}

// blockAt returns the tag of the block whose payload is p.
func blockAt(a *Allocator, p Ptr) format.Tag {
	return format.ReadTag(a.data, format.TagOf(int(p)))
}

// blocks collects the physical block list.
func blocks(a *Allocator) []BlockInfo {
	var out []BlockInfo
	a.Blocks(func(b BlockInfo) bool {
		out = append(out, b)
		return true
	})
	return out
}

// freeList collects the free list in list order.
func freeList(a *Allocator) []BlockInfo {
	var out []BlockInfo
	a.FreeBlocks(func(b BlockInfo) bool {
		out = append(out, b)
		return true
	})
	return out
}

// ============================================================================
// Payload Patterns
// ============================================================================

// fillPattern writes a position- and seed-dependent byte pattern into the
// first n payload bytes of p.
func fillPattern(t testing.TB, a *Allocator, p Ptr, n int, seed byte) {
	t.Helper()
	b, err := a.Payload(p)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), n)
	for i := range n {
		b[i] = seed + byte(i*7)
	}
}

// checkPattern verifies the first n payload bytes of p against fillPattern.
func checkPattern(t testing.TB, a *Allocator, p Ptr, n int, seed byte) {
	t.Helper()
	b, err := a.Payload(p)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), n)
	for i := range n {
		if b[i] != seed+byte(i*7) {
			require.Failf(t, "pattern mismatch", "payload %d byte %d: got 0x%02X, want 0x%02X", p, i, b[i], seed+byte(i*7))
		}
	}
}
