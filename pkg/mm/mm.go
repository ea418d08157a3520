// Package mm exposes one process-wide heap behind malloc-style functions.
//
// The heap is created on first use over an mmap reservation of
// arena.DefaultMaxSize bytes (a slice on platforms without mmap). Every call
// takes a single package mutex, so the functions are safe for concurrent use;
// the allocator underneath is not.
//
// Handles are alloc.Ptr offsets into the heap. Use Bytes to reach the payload.
//
//	p, err := mm.Malloc(64)
//	if err != nil {
//	    return err
//	}
//	defer mm.Free(p)
//	b, _ := mm.Bytes(p)
//	copy(b, data)
package mm

import (
	"sync"

	"github.com/joshuapare/btalloc/arena"
	"github.com/joshuapare/btalloc/arena/alloc"
)

var (
	mu   sync.Mutex
	ar   *arena.Arena
	heap *alloc.Allocator
)

// Init creates the process-wide heap if it does not exist yet. Calling it is
// optional: every other function initializes on demand.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	return initLocked(arena.DefaultMaxSize)
}

func initLocked(maxSize int) error {
	if heap != nil {
		return nil
	}
	r, err := arena.NewMapped(maxSize)
	if err != nil {
		return err
	}
	a, err := alloc.New(r, nil)
	if err != nil {
		_ = r.Close()
		return err
	}
	ar, heap = r, a
	return nil
}

// Reset discards the current heap, if any, and creates a fresh one of
// maxSize bytes. Handles from the old heap become invalid.
func Reset(maxSize int) error {
	mu.Lock()
	defer mu.Unlock()

	if ar != nil {
		if err := ar.Close(); err != nil {
			return err
		}
	}
	ar, heap = nil, nil
	return initLocked(maxSize)
}

// Malloc allocates size bytes. Malloc(0) returns alloc.Nil.
func Malloc(size int) (alloc.Ptr, error) {
	mu.Lock()
	defer mu.Unlock()
	if err := initLocked(arena.DefaultMaxSize); err != nil {
		return alloc.Nil, err
	}
	return heap.Malloc(size)
}

// Free releases p. Free(alloc.Nil) does nothing.
func Free(p alloc.Ptr) error {
	mu.Lock()
	defer mu.Unlock()
	if err := initLocked(arena.DefaultMaxSize); err != nil {
		return err
	}
	return heap.Free(p)
}

// Realloc resizes p, moving it if needed. See (*alloc.Allocator).Realloc.
func Realloc(p alloc.Ptr, size int) (alloc.Ptr, error) {
	mu.Lock()
	defer mu.Unlock()
	if err := initLocked(arena.DefaultMaxSize); err != nil {
		return alloc.Nil, err
	}
	return heap.Realloc(p, size)
}

// Calloc allocates count*size zeroed bytes.
func Calloc(count, size int) (alloc.Ptr, error) {
	mu.Lock()
	defer mu.Unlock()
	if err := initLocked(arena.DefaultMaxSize); err != nil {
		return alloc.Nil, err
	}
	return heap.Calloc(count, size)
}

// Bytes returns the payload of p. The slice must not be used after p is
// freed or reallocated.
func Bytes(p alloc.Ptr) ([]byte, error) {
	mu.Lock()
	defer mu.Unlock()
	if err := initLocked(arena.DefaultMaxSize); err != nil {
		return nil, err
	}
	return heap.Payload(p)
}

// CheckHeap validates the heap. See (*alloc.Allocator).CheckHeap.
func CheckHeap(verbose bool) error {
	mu.Lock()
	defer mu.Unlock()
	if err := initLocked(arena.DefaultMaxSize); err != nil {
		return err
	}
	return heap.CheckHeap(verbose)
}

// Stats returns the heap counters.
func Stats() alloc.Stats {
	mu.Lock()
	defer mu.Unlock()
	if heap == nil {
		return alloc.Stats{}
	}
	return heap.Stats()
}
