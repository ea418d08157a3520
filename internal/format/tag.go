package format

import (
	"fmt"

	"github.com/joshuapare/btalloc/internal/buf"
)

// Status is the allocation state carried in a boundary tag.
type Status uint8

const (
	// Free marks a block available for allocation.
	Free Status = 0
	// Used marks a block handed out to a caller (or a sentinel).
	Used Status = 1
)

// statusMask selects the status bit of a packed tag word. Block sizes are
// multiples of Alignment, so the low bits of the size are always zero.
const statusMask = int32(Used)

func (s Status) String() string {
	if s == Used {
		return "USED"
	}
	return "FREE"
}

// Tag is the decoded form of a boundary tag.
//
// Tag word layout (little-endian int32):
//
//	bits 31..1  block size in bytes (header + payload + footer)
//	bit  0      status (1 = USED, 0 = FREE)
type Tag struct {
	Size   int
	Status Status
}

// Used reports whether the tag describes an allocated block.
func (t Tag) Used() bool { return t.Status == Used }

// Free reports whether the tag describes a free block.
func (t Tag) Free() bool { return t.Status == Free }

func (t Tag) String() string {
	return fmt.Sprintf("%s/%d", t.Status, t.Size)
}

// Encode packs size and status into a single tag word.
func Encode(size int, st Status) int32 {
	return int32(size) | int32(st)
}

// Decode unpacks a tag word.
func Decode(w int32) Tag {
	return Tag{
		Size:   int(w &^ statusMask),
		Status: Status(w & statusMask),
	}
}

// ReadTag decodes the tag stored at off.
func ReadTag(b []byte, off int) Tag {
	return Decode(ReadI32(b, off))
}

// ParseTag decodes the tag at off after checking that the word is inside b
// and that its size is a legal block size.
func ParseTag(b []byte, off int) (Tag, error) {
	if !buf.Has(b, off, TagSize) {
		return Tag{}, fmt.Errorf("%w: tag at %d, buffer is %d bytes", ErrTruncated, off, len(b))
	}
	t := ReadTag(b, off)
	if t.Size < MinBlockSize || !IsAligned(t.Size) {
		return t, fmt.Errorf("%w: %s at %d", ErrBadTag, t, off)
	}
	return t, nil
}

// WriteTag stores a single tag word at off.
func WriteTag(b []byte, off int, t Tag) {
	PutI32(b, off, Encode(t.Size, t.Status))
}

// SizeAt returns the block size recorded in the tag at off.
func SizeAt(b []byte, off int) int {
	return ReadTag(b, off).Size
}

// UsedAt reports whether the tag at off is marked USED.
func UsedAt(b []byte, off int) bool {
	return ReadI32(b, off)&statusMask != 0
}

// FreeAt reports whether the tag at off is marked FREE.
func FreeAt(b []byte, off int) bool {
	return !UsedAt(b, off)
}

// MakeBlock writes matching header and footer tags for a block starting at
// off. The footer position is derived from size, not from whatever tag was
// previously at off.
func MakeBlock(b []byte, off, size int, st Status) {
	w := Encode(size, st)
	PutI32(b, off, w)
	PutI32(b, off+size-TagSize, w)
}

// FooterOf returns the offset of the footer matching the header at off.
func FooterOf(b []byte, off int) int {
	return off + SizeAt(b, off) - TagSize
}

// NextOf returns the tag offset of the block physically following off. It
// returns false for a zero-size tag, which never occurs in a heap whose end
// is tracked explicitly but keeps a corrupt heap from looping forever.
func NextOf(b []byte, off int) (int, bool) {
	size := SizeAt(b, off)
	if size == 0 {
		return 0, false
	}
	return off + size, true
}

// PrevOf returns the tag offset of the block physically preceding off by
// reading the footer in the word just before it. first is the tag offset of
// the first real block; it has no predecessor.
func PrevOf(b []byte, off, first int) (int, bool) {
	if off == first {
		return 0, false
	}
	return off - SizeAt(b, off-TagSize), true
}

// PayloadOf returns the payload offset for the block whose header is at off.
func PayloadOf(off int) int {
	return off + TagSize
}

// TagOf returns the header offset for a payload offset.
func TagOf(payload int) int {
	return payload - TagSize
}
