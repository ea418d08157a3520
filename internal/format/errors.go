package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a tag.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadTag indicates a tag word whose size is not a legal block size.
	ErrBadTag = errors.New("format: malformed boundary tag")
)
