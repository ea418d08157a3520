package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/btalloc/arena/alloc"
	"github.com/joshuapare/btalloc/arena/trace"
	"github.com/joshuapare/btalloc/internal/format"
)

var (
	dumpUpto  int
	dumpWidth int
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpUpto, "upto", 0, "Stop after this many ops (0 replays the whole trace)")
	cmd.Flags().IntVar(&dumpWidth, "width", 64, "Map cells per line")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <trace>",
		Short: "Replay a trace and print the resulting block map",
		Long: `The dump command replays a trace, optionally stopping early, and prints
the heap as a map with one cell per 16 bytes. Each block gets its own letter,
uppercase when allocated and lowercase when free. The free list follows in
list order.

Example:
  mmdriver dump short1.rep
  mmdriver dump --upto 200 amptjp-bal.rep
  mmdriver dump --json short1.rep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

// heapDump is the JSON form of a block map.
type heapDump struct {
	Trace    string      `json:"trace"`
	Ops      int         `json:"ops"`
	HeapSize int         `json:"heap_size"`
	Blocks   []blockJSON `json:"blocks"`
	FreeList []int       `json:"free_list"`
}

type blockJSON struct {
	Offset int  `json:"offset"`
	Size   int  `json:"size"`
	Used   bool `json:"used"`
}

func runDump(args []string) error {
	if dumpWidth <= 0 {
		return fmt.Errorf("--width must be positive, got %d", dumpWidth)
	}

	tr, err := trace.ParseFile(args[0])
	if err != nil {
		return err
	}
	if dumpUpto < 0 {
		return fmt.Errorf("--upto must not be negative, got %d", dumpUpto)
	}
	if dumpUpto > 0 && dumpUpto < len(tr.Ops) {
		tr.Ops = tr.Ops[:dumpUpto]
	}

	h, err := newHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	if _, err := trace.Replay(tr, h.alloc, trace.Options{Check: checkEachOp, Logger: slog.Default()}); err != nil {
		return err
	}
	if err := h.alloc.CheckHeap(verbose); err != nil {
		return fmt.Errorf("heap check failed after replay: %w", err)
	}

	var blocks []alloc.BlockInfo
	h.alloc.Blocks(func(b alloc.BlockInfo) bool {
		blocks = append(blocks, b)
		return true
	})
	var free []int
	h.alloc.FreeBlocks(func(b alloc.BlockInfo) bool {
		free = append(free, b.Offset)
		return true
	})

	if jsonOut {
		out := heapDump{
			Trace:    tr.Name,
			Ops:      len(tr.Ops),
			HeapSize: h.alloc.HeapSize(),
			Blocks:   make([]blockJSON, 0, len(blocks)),
			FreeList: free,
		}
		for _, b := range blocks {
			out.Blocks = append(out.Blocks, blockJSON{Offset: b.Offset, Size: b.Size, Used: b.Used})
		}
		if out.FreeList == nil {
			out.FreeList = []int{}
		}
		return printJSON(out)
	}

	used := 0
	for _, b := range blocks {
		if b.Used {
			used++
		}
	}
	printInfo("%s after %d ops: heap %d bytes, %d blocks (%d used, %d free)\n",
		tr.Name, len(tr.Ops), h.alloc.HeapSize(), len(blocks), used, len(blocks)-used)

	first := h.alloc.Layout().First
	for _, line := range blockMap(blocks, dumpWidth) {
		printInfo("%8d  %s\n", first+line.offset, line.cells)
	}

	if len(free) == 0 {
		printInfo("free list: empty\n")
		return nil
	}
	parts := make([]string, len(free))
	for i, off := range free {
		parts[i] = fmt.Sprint(off)
	}
	printInfo("free list: %s\n", strings.Join(parts, " -> "))
	return nil
}

type mapLine struct {
	offset int // byte offset of the first cell, relative to the first block
	cells  string
}

// blockMap renders blocks as rows of width cells, one cell per Alignment
// bytes. Block letters cycle a to z.
func blockMap(blocks []alloc.BlockInfo, width int) []mapLine {
	var sb strings.Builder
	for i, b := range blocks {
		c := byte('a' + i%26)
		if b.Used {
			c -= 'a' - 'A'
		}
		for range b.Size / format.Alignment {
			sb.WriteByte(c)
		}
	}

	cells := sb.String()
	var lines []mapLine
	for lo := 0; lo < len(cells); lo += width {
		hi := min(lo+width, len(cells))
		lines = append(lines, mapLine{offset: lo * format.Alignment, cells: cells[lo:hi]})
	}
	return lines
}
