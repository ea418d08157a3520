package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and growing the region failed.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrBadPtr indicates a handle that does not name an allocated block in this heap.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: bad size")

	// ErrOverflow indicates that count * size in a zeroed allocation overflowed.
	ErrOverflow = errors.New("alloc: size computation overflows")

	// ErrNotContiguous indicates the region grew somewhere other than its
	// previous end. It is permanent: every later growth fails with it.
	ErrNotContiguous = errors.New("alloc: region growth not contiguous")
)
