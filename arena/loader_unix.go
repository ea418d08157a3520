//go:build unix

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewMapped reserves maxSize bytes of anonymous address space. Nothing is
// readable or writable until Grow commits it.
func NewMapped(maxSize int) (*Arena, error) {
	if err := checkMaxSize(maxSize); err != nil {
		return nil, err
	}

	mem, err := unix.Mmap(
		-1,
		0,
		maxSize,
		unix.PROT_NONE,
		unix.MAP_PRIVATE|unix.MAP_ANON|mapNoReserve,
	)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap reservation of %d bytes failed: %w", maxSize, err)
	}

	return &Arena{
		mem:      mem,
		mapped:   true,
		pageSize: unix.Getpagesize(),
	}, nil
}

func protectRW(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE)
}

func release(b []byte) error {
	if b == nil {
		return nil
	}
	return unix.Munmap(b)
}
