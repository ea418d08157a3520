// Package format houses the low-level layout of the managed heap: the width
// of a boundary tag, the alignment unit, and the fixed offsets of the sentinel
// pair written at initialization. Higher-level packages go through the
// helpers here instead of computing these positions by hand.
package format

const (
	// WordSize is the width of one heap word in bytes. Boundary tags and
	// free-list links are each exactly one word.
	WordSize = 4

	// TagSize is the number of bytes used by a header or footer tag.
	TagSize = WordSize

	// Alignment is the alignment unit for block sizes and payload addresses.
	// It must be a power of two and at least MinBlockSize.
	Alignment = 16

	// AlignmentMask is Alignment-1, used for round-up arithmetic.
	AlignmentMask = Alignment - 1

	// Overhead is the per-block metadata cost: one header plus one footer.
	Overhead = 2 * TagSize

	// MinBlockSize is the smallest legal block: header, two link words and a
	// footer when free, or header, 8 payload bytes and footer when used.
	MinBlockSize = 16

	// SmallRequest is the largest request that still fits a MinBlockSize block.
	SmallRequest = MinBlockSize - Overhead

	// SentinelSize is the size of each of the two sentinel blocks.
	SentinelSize = Alignment
)

// Initial heap layout, in words. Growing the region by InitSize bytes and
// writing the sentinel pair at these positions leaves the last word of the
// initial region free to become the header of the first real block, which
// puts every payload on an Alignment boundary.
//
//	word  0..2   padding
//	word  3      head sentinel header   (USED, 16)
//	word  4..5   head next/prev links
//	word  6      head sentinel footer
//	word  7      tail sentinel header   (USED, 16)
//	word  8..9   tail next/prev links
//	word 10      tail sentinel footer
//	word 11      header of the first real block
const (
	// InitSize is the number of bytes requested from the region at init.
	InitSize = 12 * WordSize

	// HeadSentinelOffset is the byte offset of the head sentinel's header.
	HeadSentinelOffset = 3 * WordSize

	// TailSentinelOffset is the byte offset of the tail sentinel's header.
	TailSentinelOffset = 7 * WordSize

	// HeapStart is the payload offset of the first real block.
	HeapStart = InitSize

	// FirstBlockOffset is the tag offset of the first real block.
	FirstBlockOffset = HeapStart - TagSize
)

// Free-list link slots, relative to a free block's header tag.
const (
	// NextLinkOffset holds the signed word distance to the next free block.
	NextLinkOffset = TagSize

	// PrevLinkOffset holds the signed word distance to the previous free block.
	PrevLinkOffset = TagSize + WordSize
)

// MaxBlockSize is the largest size a tag can encode. Sizes are stored in a
// signed 32-bit word with the low bit reserved for the status flag.
const MaxBlockSize = 0x7FFFFFFF &^ AlignmentMask
