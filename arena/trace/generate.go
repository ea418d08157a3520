package trace

import "math/rand"

// Generate builds a random valid trace of roughly nOps operations with
// request sizes in [1, maxSize]. Every id is allocated once, may be
// reallocated any number of times, and is freed before the trace ends, so the
// returned trace can have up to nOps extra frees appended at the end.
func Generate(rng *rand.Rand, nOps, maxSize int) *Trace {
	if maxSize < 1 {
		maxSize = 1
	}
	t := &Trace{Name: "generated", Weight: 1}

	var live []int
	sizes := make(map[int]int)
	cur, peak := 0, 0

	for range nOps {
		r := rng.Intn(10)
		switch {
		case len(live) == 0 || r < 5:
			id := t.NumIDs
			t.NumIDs++
			size := 1 + rng.Intn(maxSize)
			t.Ops = append(t.Ops, Op{Kind: Alloc, ID: id, Size: size})
			live = append(live, id)
			sizes[id] = size
			cur += size

		case r < 7:
			id := live[rng.Intn(len(live))]
			size := 1 + rng.Intn(maxSize)
			t.Ops = append(t.Ops, Op{Kind: Realloc, ID: id, Size: size})
			cur += size - sizes[id]
			sizes[id] = size

		default:
			i := rng.Intn(len(live))
			id := live[i]
			t.Ops = append(t.Ops, Op{Kind: Free, ID: id})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			cur -= sizes[id]
			delete(sizes, id)
		}
		peak = max(peak, cur)
	}

	for _, id := range live {
		t.Ops = append(t.Ops, Op{Kind: Free, ID: id})
	}
	t.SuggestedHeapSize = peak
	return t
}
