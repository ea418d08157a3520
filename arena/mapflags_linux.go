//go:build linux

package arena

import "golang.org/x/sys/unix"

// mapNoReserve keeps large reservations from counting against overcommit.
const mapNoReserve = unix.MAP_NORESERVE
