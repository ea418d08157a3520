//go:build !unix

package arena

// NewMapped falls back to a slice-backed arena on platforms without mmap.
func NewMapped(maxSize int) (*Arena, error) {
	return New(maxSize)
}

func protectRW(_ []byte) error { return nil }

func release(_ []byte) error { return nil }
