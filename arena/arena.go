package arena

import (
	"fmt"

	"github.com/joshuapare/btalloc/internal/format"
)

const (
	// DefaultMaxSize is the reservation used when no explicit size is given.
	DefaultMaxSize = 20 << 20

	// MaxSize is the largest reservation an arena accepts. Block sizes and
	// free-list distances are stored in 32-bit words, so offsets past this
	// point could not be encoded.
	MaxSize = format.MaxBlockSize
)

// Arena is a contiguous region with a movable break.
type Arena struct {
	mem    []byte // full reservation; len(mem) is the maximum size
	brk    int    // current break: bytes [0, brk) are in use
	mapped bool   // mem came from mmap and must be committed page by page

	committed int // mapped only: bytes [0, committed) are read/write
	pageSize  int

	closed bool
}

// New creates a slice-backed arena that can grow up to maxSize bytes.
func New(maxSize int) (*Arena, error) {
	if err := checkMaxSize(maxSize); err != nil {
		return nil, err
	}
	return &Arena{mem: make([]byte, maxSize)}, nil
}

func checkMaxSize(maxSize int) error {
	if maxSize <= 0 || maxSize > MaxSize {
		return fmt.Errorf("%w: max size %d outside (0, %d]", ErrBadSize, maxSize, MaxSize)
	}
	return nil
}

// Grow moves the break up by n bytes and returns the previous break. The new
// bytes are zero. On failure the break is unchanged.
func (a *Arena) Grow(n int) (int, error) {
	if a == nil || a.closed {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: cannot shrink by %d bytes", ErrBadSize, -n)
	}
	prev := a.brk
	if n == 0 {
		return prev, nil
	}
	if n > len(a.mem)-a.brk {
		return 0, fmt.Errorf("%w: grow by %d exceeds remaining %d of %d bytes",
			ErrNoMemory, n, len(a.mem)-a.brk, len(a.mem))
	}
	if a.mapped {
		if err := a.commit(a.brk + n); err != nil {
			return 0, err
		}
	}
	a.brk += n
	return prev, nil
}

// Bytes returns the in-use part of the region, [0, brk). The slice aliases the
// arena; it stays valid after later Grow calls but does not see the new bytes.
func (a *Arena) Bytes() []byte {
	if a == nil || a.closed {
		return nil
	}
	return a.mem[:a.brk:a.brk]
}

// Size returns the current break.
func (a *Arena) Size() int {
	if a == nil {
		return 0
	}
	return a.brk
}

// Max returns the reservation size.
func (a *Arena) Max() int {
	if a == nil {
		return 0
	}
	return len(a.mem)
}

// Mapped reports whether the arena is backed by an mmap reservation.
func (a *Arena) Mapped() bool {
	return a != nil && a.mapped
}

// Reset zeroes the in-use bytes and moves the break back to zero. It exists
// so drivers can replay several workloads against one reservation; the
// allocator itself never shrinks the region.
func (a *Arena) Reset() {
	if a == nil || a.closed {
		return
	}
	clear(a.mem[:a.brk])
	a.brk = 0
}

// Close releases the reservation. The arena must not be used afterwards.
func (a *Arena) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	var err error
	if a.mapped {
		err = release(a.mem)
	}
	a.mem = nil
	a.brk = 0
	return err
}

// commit makes [0, end) readable and writable, rounding up to whole pages.
func (a *Arena) commit(end int) error {
	if end <= a.committed {
		return nil
	}
	target := min((end+a.pageSize-1)/a.pageSize*a.pageSize, len(a.mem))
	if err := protectRW(a.mem[a.committed:target]); err != nil {
		return fmt.Errorf("%w: commit [%d, %d): %w", ErrNoMemory, a.committed, target, err)
	}
	a.committed = target
	return nil
}
