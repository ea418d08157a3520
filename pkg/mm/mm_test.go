package mm_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/btalloc/arena/alloc"
	"github.com/joshuapare/btalloc/pkg/mm"
)

func fresh(t *testing.T) {
	t.Helper()
	require.NoError(t, mm.Reset(1<<20))
}

func TestMallocFreeRoundTrip(t *testing.T) {
	fresh(t)

	p, err := mm.Malloc(100)
	require.NoError(t, err)
	require.NotEqual(t, alloc.Nil, p)

	b, err := mm.Bytes(p)
	require.NoError(t, err)
	copy(b, "hello")

	q, err := mm.Realloc(p, 4000)
	require.NoError(t, err)
	b, err = mm.Bytes(q)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b[:5]))

	require.NoError(t, mm.Free(q))
	require.NoError(t, mm.CheckHeap(false))
	assert.Equal(t, 1, mm.Stats().FreeCalls)
}

func TestCallocZeroes(t *testing.T) {
	fresh(t)

	p, err := mm.Calloc(8, 8)
	require.NoError(t, err)
	b, err := mm.Bytes(p)
	require.NoError(t, err)
	for i := range 64 {
		assert.Zero(t, b[i])
	}

	_, err = mm.Calloc(1<<62, 4)
	require.ErrorIs(t, err, alloc.ErrOverflow)
}

func TestInitIdempotent(t *testing.T) {
	fresh(t)

	p, err := mm.Malloc(8)
	require.NoError(t, err)
	require.NoError(t, mm.Init())

	// Init must not have replaced the heap.
	require.NoError(t, mm.Free(p))
}

func TestResetInvalidatesHandles(t *testing.T) {
	fresh(t)

	p, err := mm.Malloc(64)
	require.NoError(t, err)
	fresh(t)

	require.ErrorIs(t, mm.Free(p), alloc.ErrBadPtr)
	assert.Zero(t, mm.Stats().AllocCalls)
}

func TestConcurrentUse(t *testing.T) {
	fresh(t)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range 200 {
				p, err := mm.Malloc(16 + (g*31+i)%200)
				if !assert.NoError(t, err) {
					return
				}
				b, err := mm.Bytes(p)
				if !assert.NoError(t, err) {
					return
				}
				b[0] = byte(g)
				if i%3 == 0 {
					p, err = mm.Realloc(p, 300)
					if !assert.NoError(t, err) {
						return
					}
				}
				assert.NoError(t, mm.Free(p))
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, mm.CheckHeap(false))
}
