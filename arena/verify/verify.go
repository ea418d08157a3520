// Package verify provides validation functions for boundary-tag heaps.
// These helpers back the allocator's consistency check and its tests.
package verify

import (
	"fmt"

	"github.com/joshuapare/btalloc/internal/buf"
	"github.com/joshuapare/btalloc/internal/format"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Layout carries the heap anchors the allocator tracks outside the region.
type Layout struct {
	First int // tag of the first real block
	Head  int // tag of the head sentinel
	Tail  int // tag of the tail sentinel
	Last  int // tag of the topmost block, or Tail for an empty heap

	// AdjacentFree accepts physically adjacent FREE blocks. An allocator that
	// leaves realloc shrink remainders uncoalesced sets it.
	AdjacentFree bool
}

// AllInvariants validates all heap invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte, l Layout) error {
	if err := Sentinels(data, l); err != nil {
		return err
	}
	if err := Blocks(data, l); err != nil {
		return err
	}
	if err := FreeList(data, l); err != nil {
		return err
	}
	return nil
}

// Sentinels checks that both sentinels are intact USED blocks and terminate
// the free list on their outer side.
func Sentinels(data []byte, l Layout) error {
	for _, s := range []struct {
		name string
		off  int
	}{{"head", l.Head}, {"tail", l.Tail}} {
		if !buf.Has(data, s.off, format.SentinelSize) {
			return &ValidationError{
				Type:    "Sentinels",
				Message: fmt.Sprintf("%s sentinel outside heap of %d bytes", s.name, len(data)),
				Offset:  s.off,
			}
		}
		hdr := format.ReadTag(data, s.off)
		ftr := format.ReadTag(data, s.off+format.SentinelSize-format.TagSize)
		want := format.Tag{Size: format.SentinelSize, Status: format.Used}
		if hdr != want || ftr != want {
			return &ValidationError{
				Type:    "Sentinels",
				Message: fmt.Sprintf("%s sentinel tags %s/%s, expected %s", s.name, hdr, ftr, want),
				Offset:  s.off,
			}
		}
	}

	if d := format.ReadI32(data, l.Head+format.PrevLinkOffset); d != 0 {
		return &ValidationError{
			Type:    "Sentinels",
			Message: fmt.Sprintf("head sentinel has a predecessor (distance %d)", d),
			Offset:  l.Head,
		}
	}
	if d := format.ReadI32(data, l.Tail+format.NextLinkOffset); d != 0 {
		return &ValidationError{
			Type:    "Sentinels",
			Message: fmt.Sprintf("tail sentinel has a successor (distance %d)", d),
			Offset:  l.Tail,
		}
	}
	return nil
}

// Blocks walks the heap physically from First to Last and checks every block:
// matching header and footer, aligned size of at least MinBlockSize, aligned
// payload, no two adjacent FREE blocks unless l.AdjacentFree, and a top
// block that ends one tag short of the region end.
func Blocks(data []byte, l Layout) error {
	_, err := walk(data, l)
	return err
}

// walk performs the physical scan and returns the set of FREE block tags.
func walk(data []byte, l Layout) (map[int]struct{}, error) {
	free := make(map[int]struct{})

	if l.Last == l.Tail {
		if len(data) != l.First+format.TagSize {
			return nil, &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("empty heap but region is %d bytes, expected %d", len(data), l.First+format.TagSize),
				Offset:  -1,
			}
		}
		return free, nil
	}

	prevFree := false
	bt := l.First
	for {
		if !buf.Has(data, bt, format.TagSize) {
			return nil, &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("block walk ran off the heap (len=%d) before reaching top block 0x%X", len(data), l.Last),
				Offset:  bt,
			}
		}
		hdr := format.ReadTag(data, bt)
		if hdr.Size < format.MinBlockSize || !format.IsAligned(hdr.Size) {
			return nil, &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("bad block size %d", hdr.Size),
				Offset:  bt,
				Details: map[string]interface{}{"tag": hdr.String()},
			}
		}
		if _, err := buf.CheckRange(len(data)-format.TagSize, bt, hdr.Size); err != nil {
			return nil, &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("block of %d bytes extends past heap end %d (%v)", hdr.Size, len(data), err),
				Offset:  bt,
			}
		}
		ftr := format.ReadTag(data, bt+hdr.Size-format.TagSize)
		if ftr != hdr {
			return nil, &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("header %s does not match footer %s", hdr, ftr),
				Offset:  bt,
			}
		}
		if !format.IsAligned(format.PayloadOf(bt)) {
			return nil, &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("payload 0x%X not %d-byte aligned", format.PayloadOf(bt), format.Alignment),
				Offset:  bt,
			}
		}
		if hdr.Free() {
			if prevFree && !l.AdjacentFree {
				return nil, &ValidationError{
					Type:    "Blocks",
					Message: "adjacent free blocks were not coalesced",
					Offset:  bt,
				}
			}
			free[bt] = struct{}{}
		}
		prevFree = hdr.Free()

		if bt == l.Last {
			if end := bt + hdr.Size; end != len(data)-format.TagSize {
				return nil, &ValidationError{
					Type:    "Blocks",
					Message: fmt.Sprintf("top block ends at %d, heap ends at %d", end, len(data)),
					Offset:  bt,
				}
			}
			return free, nil
		}
		if bt > l.Last {
			return nil, &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("block walk stepped over top block 0x%X", l.Last),
				Offset:  bt,
			}
		}
		bt += hdr.Size
	}
}

// FreeList walks the explicit free list from the head sentinel to the tail
// sentinel and checks that every entry is a FREE block found by the physical
// walk, that back links mirror forward links, and that every FREE block is on
// the list exactly once.
func FreeList(data []byte, l Layout) error {
	free, err := walk(data, l)
	if err != nil {
		return err
	}

	seen := make(map[int]struct{}, len(free))
	prev := l.Head
	for steps := 0; ; steps++ {
		if steps > len(free) {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("list longer than the %d free blocks in the heap (cycle?)", len(free)),
				Offset:  prev,
			}
		}
		d := format.ReadI32(data, prev+format.NextLinkOffset)
		if d == 0 {
			return &ValidationError{
				Type:    "FreeList",
				Message: "list ends before reaching the tail sentinel",
				Offset:  prev,
			}
		}
		cur := prev + int(d)*format.WordSize
		if !buf.Has(data, cur, format.MinBlockSize) {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("link to 0x%X points outside heap", cur),
				Offset:  prev,
			}
		}
		back := format.ReadI32(data, cur+format.PrevLinkOffset)
		if cur+int(back)*format.WordSize != prev {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("back link of 0x%X points to 0x%X, expected 0x%X", cur, cur+int(back)*format.WordSize, prev),
				Offset:  cur,
			}
		}
		if cur == l.Tail {
			break
		}
		if _, ok := free[cur]; !ok {
			return &ValidationError{
				Type:    "FreeList",
				Message: "list entry is not a free block in the heap",
				Offset:  cur,
				Details: map[string]interface{}{"tag": format.ReadTag(data, cur).String()},
			}
		}
		if _, dup := seen[cur]; dup {
			return &ValidationError{
				Type:    "FreeList",
				Message: "block appears twice in the list",
				Offset:  cur,
			}
		}
		seen[cur] = struct{}{}
		prev = cur
	}

	if len(seen) != len(free) {
		return &ValidationError{
			Type:    "FreeList",
			Message: fmt.Sprintf("list holds %d blocks, heap has %d free blocks", len(seen), len(free)),
			Offset:  -1,
		}
	}
	return nil
}
