package format

import "encoding/binary"

// Binary encoding utilities for heap words.
//
// Tags and links are stored little-endian regardless of host byte order so a
// heap image reads the same everywhere. encoding/binary.LittleEndian compiles
// down to a plain load/store on little-endian hosts.

// PutI32 writes an int32 value to the buffer at the specified offset in little-endian format.
func PutI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
}

// ReadI32 reads an int32 value from the buffer at the specified offset in little-endian format.
func ReadI32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off : off+4]))
}
