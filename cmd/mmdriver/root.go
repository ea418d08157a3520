package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/btalloc/arena"
	"github.com/joshuapare/btalloc/arena/alloc"
)

var (
	// Global flags
	verbose          bool
	jsonOut          bool
	logJSON          bool
	maxHeap          int
	useMmap          bool
	checkEachOp      bool
	noCoalesceShrink bool
)

var rootCmd = &cobra.Command{
	Use:   "mmdriver",
	Short: "Replay allocation traces against the boundary-tag allocator",
	Long: `mmdriver replays allocation trace files against the explicit free list
allocator, checking every payload for alignment, overlap and data integrity,
and reports space utilization and throughput for each trace.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(os.Stderr))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write log records as JSON")
	rootCmd.PersistentFlags().
		IntVar(&maxHeap, "max-heap", arena.DefaultMaxSize, "Maximum heap size in bytes")
	rootCmd.PersistentFlags().BoolVar(&useMmap, "mmap", false, "Back the heap with an mmap reservation")
	rootCmd.PersistentFlags().
		BoolVar(&checkEachOp, "check", false, "Run the heap checker after every op")
	rootCmd.PersistentFlags().
		BoolVar(&noCoalesceShrink, "no-coalesce-shrink", false, "Do not merge realloc shrink remainders with a free successor")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the global flags.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// heap bundles a fresh region with the allocator that owns it.
type heap struct {
	region *arena.Arena
	alloc  *alloc.Allocator
}

func (h *heap) Close() error {
	return h.region.Close()
}

// newHeap creates a region and allocator configured from the global flags.
func newHeap() (*heap, error) {
	var (
		r   *arena.Arena
		err error
	)
	if useMmap {
		r, err = arena.NewMapped(maxHeap)
	} else {
		r, err = arena.New(maxHeap)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create heap: %w", err)
	}

	opts := alloc.DefaultOptions()
	opts.Logger = slog.Default()
	opts.CoalesceShrink = !noCoalesceShrink

	a, err := alloc.New(r, opts)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to initialize allocator: %w", err)
	}
	return &heap{region: r, alloc: a}, nil
}

// Helper functions for output

// printInfo prints a message to stdout
func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
