package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coalesceCounts picks the four coalescing counters out of Stats.
func coalesceCounts(s Stats) [4]int {
	return [4]int{s.CoalesceNone, s.CoalesceNext, s.CoalescePrev, s.CoalesceBoth}
}

// TestCoalesce_DecisionTable exercises every reachable cell of the
// (prev free, next free) table, both in the middle of the heap and at the top.
//
// Every block is 16 bytes. Block i has its tag at 44+16*i.
func TestCoalesce_DecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		nblocks  int
		freeIdx  []int // freed in this order; the last one triggers the case under test
		wantCase mergeCase
		want     []BlockInfo
		wantLast int
	}{
		{
			name:     "used/used",
			nblocks:  4,
			freeIdx:  []int{1},
			wantCase: mergeNone,
			want: []BlockInfo{
				{44, 16, true}, {60, 16, false}, {76, 16, true}, {92, 16, true},
			},
			wantLast: 92,
		},
		{
			name:     "used/free",
			nblocks:  4,
			freeIdx:  []int{2, 1},
			wantCase: mergeNext,
			want: []BlockInfo{
				{44, 16, true}, {60, 32, false}, {92, 16, true},
			},
			wantLast: 92,
		},
		{
			name:     "free/used",
			nblocks:  4,
			freeIdx:  []int{0, 1},
			wantCase: mergePrev,
			want: []BlockInfo{
				{44, 32, false}, {76, 16, true}, {92, 16, true},
			},
			wantLast: 92,
		},
		{
			name:     "free/free",
			nblocks:  4,
			freeIdx:  []int{0, 2, 1},
			wantCase: mergeBoth,
			want: []BlockInfo{
				{44, 48, false}, {92, 16, true},
			},
			wantLast: 92,
		},
		{
			name:     "used/top",
			nblocks:  2,
			freeIdx:  []int{1},
			wantCase: mergeNone,
			want: []BlockInfo{
				{44, 16, true}, {60, 16, false},
			},
			wantLast: 60,
		},
		{
			name:     "free/top",
			nblocks:  3,
			freeIdx:  []int{1, 2},
			wantCase: mergePrev,
			want: []BlockInfo{
				{44, 16, true}, {60, 32, false},
			},
			wantLast: 60,
		},
		{
			name:     "used/free top",
			nblocks:  3,
			freeIdx:  []int{2, 1},
			wantCase: mergeNext,
			want: []BlockInfo{
				{44, 16, true}, {60, 32, false},
			},
			wantLast: 60,
		},
		{
			name:     "free/free top",
			nblocks:  3,
			freeIdx:  []int{0, 2, 1},
			wantCase: mergeBoth,
			want: []BlockInfo{
				{44, 48, false},
			},
			wantLast: 44,
		},
		{
			name:     "first/free",
			nblocks:  3,
			freeIdx:  []int{1, 0},
			wantCase: mergeNext,
			want: []BlockInfo{
				{44, 32, false}, {76, 16, true},
			},
			wantLast: 76,
		},
		{
			name:     "only block",
			nblocks:  1,
			freeIdx:  []int{0},
			wantCase: mergeNone,
			want: []BlockInfo{
				{44, 16, false},
			},
			wantLast: 44,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAllocator(t, 4096)
			ptrs := make([]Ptr, tt.nblocks)
			for i := range ptrs {
				ptrs[i] = mustMalloc(t, a, 8)
			}

			for _, i := range tt.freeIdx[:len(tt.freeIdx)-1] {
				mustFree(t, a, ptrs[i])
			}
			before := coalesceCounts(a.Stats())
			mustFree(t, a, ptrs[tt.freeIdx[len(tt.freeIdx)-1]])
			after := coalesceCounts(a.Stats())

			var wantDelta [4]int
			wantDelta[tt.wantCase] = 1
			assert.Equal(t, wantDelta, [4]int{
				after[0] - before[0], after[1] - before[1], after[2] - before[2], after[3] - before[3],
			}, "coalesce case")

			assert.Equal(t, tt.want, blocks(a))
			assert.Equal(t, tt.wantLast, a.last, "top marker")
			assertInvariants(t, a)
		})
	}
}

// TestCoalesce_MergedBlockAtListFront checks that the merged block is
// reinserted at the head of the free list.
func TestCoalesce_MergedBlockAtListFront(t *testing.T) {
	a := newTestAllocator(t, 4096)
	var ptrs []Ptr
	for range 6 {
		ptrs = append(ptrs, mustMalloc(t, a, 8))
	}

	mustFree(t, a, ptrs[4])
	mustFree(t, a, ptrs[2])
	mustFree(t, a, ptrs[1]) // merges with 2

	fl := freeList(a)
	require.Len(t, fl, 2)
	assert.Equal(t, BlockInfo{Offset: 60, Size: 32}, fl[0], "merged block is most recent")
	assert.Equal(t, BlockInfo{Offset: 108, Size: 16}, fl[1])
	assertInvariants(t, a)
}

// TestCoalesce_ExtensionMergesWithFreeTop verifies that growing the heap
// merges the new space with a free top block, so the allocation starts at
// the old top block instead of past it.
func TestCoalesce_ExtensionMergesWithFreeTop(t *testing.T) {
	a := newTestAllocator(t, 4096)
	mustMalloc(t, a, 8)
	top := mustMalloc(t, a, 100) // 128-byte block
	mustFree(t, a, top)

	size := a.HeapSize()
	p := mustMalloc(t, a, 200) // needs 224 bytes
	assert.Equal(t, top, p, "allocation must reuse the old free top block")
	assert.Equal(t, size+224, a.HeapSize(), "region grows by exactly the adjusted size")

	assert.Equal(t, []BlockInfo{
		{44, 16, true},
		{60, 224, true},
		{284, 128, false},
	}, blocks(a))
	assert.Equal(t, 284, a.last)
	assertInvariants(t, a)
}

func TestMergeCase_String(t *testing.T) {
	assert.Equal(t, "none", mergeNone.String())
	assert.Equal(t, "next", mergeNext.String())
	assert.Equal(t, "prev", mergePrev.String())
	assert.Equal(t, "both", mergeBoth.String())
	assert.Equal(t, "unknown", mergeCase(9).String())
}
