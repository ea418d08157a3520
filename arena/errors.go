package arena

import "errors"

var (
	// ErrNoMemory indicates the reservation cannot satisfy a Grow request.
	ErrNoMemory = errors.New("arena: out of memory")

	// ErrClosed indicates an operation on an arena that was already closed.
	ErrClosed = errors.New("arena: closed")

	// ErrBadSize indicates a negative grow request or an unusable maximum size.
	ErrBadSize = errors.New("arena: bad size")
)
