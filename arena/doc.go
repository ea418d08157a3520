// Package arena provides the contiguous, growable byte region that the
// allocator carves blocks out of.
//
// # Overview
//
// An Arena reserves its maximum size once and then hands out address space
// through Grow, which behaves like sbrk(2): it moves the break up by n bytes
// and returns the previous break. The region never moves and never shrinks,
// so offsets (and slices taken from Bytes) stay valid for the arena's
// lifetime.
//
// # Implementations
//
// New: slice-backed region. The full capacity is allocated up front and the
// visible length grows with the break.
//
// NewMapped: anonymous mmap reservation (unix). The whole range is mapped
// PROT_NONE and Grow flips pages to read/write as the break crosses them, so
// untouched address space costs nothing. On platforms without mmap it falls
// back to New.
//
// # Usage Example
//
//	ar, err := arena.NewMapped(arena.DefaultMaxSize)
//	if err != nil {
//	    return err
//	}
//	defer ar.Close()
//
//	prev, err := ar.Grow(4096)
//	if err != nil {
//	    return err // arena.ErrNoMemory once the reservation is exhausted
//	}
//	region := ar.Bytes()[prev:]
//
// # Thread Safety
//
// Arena instances are not thread-safe. Callers must synchronize access
// externally.
package arena
