package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates a malformed trace file.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrBadID indicates an op whose id is out of range or not in the state
	// the op requires (free or realloc of an id that is not live, alloc of an
	// id that already is).
	ErrBadID = errors.New("trace: bad id")

	// ErrCheck indicates the allocator returned a result that breaks the
	// driver's correctness checks.
	ErrCheck = errors.New("trace: correctness check failed")
)

// OpError reports which op of a replay failed.
type OpError struct {
	Index int // position in Trace.Ops
	Op    Op
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
