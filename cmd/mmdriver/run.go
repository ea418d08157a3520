package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/joshuapare/btalloc/arena/alloc"
	"github.com/joshuapare/btalloc/arena/trace"
)

var runLang string

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runLang, "lang", "en", "Language tag used to format report numbers")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>...",
		Short: "Replay traces and report utilization and throughput",
		Long: `The run command replays each trace against a fresh heap, validates every
returned payload and prints a per-trace summary. A trace that fails is
reported as invalid and the remaining traces still run.

Example:
  mmdriver run traces/amptjp-bal.rep traces/realloc-bal.rep
  mmdriver run --check --max-heap 4194304 short1.rep
  mmdriver run --json *.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
	return cmd
}

// traceResult is the JSON form of one replayed trace.
type traceResult struct {
	Name        string       `json:"name"`
	Valid       bool         `json:"valid"`
	Error       string       `json:"error,omitempty"`
	Ops         int          `json:"ops,omitempty"`
	PeakLive    int          `json:"peak_live,omitempty"`
	HeapSize    int          `json:"heap_size,omitempty"`
	Utilization float64      `json:"utilization,omitempty"`
	Seconds     float64      `json:"seconds,omitempty"`
	Stats       *alloc.Stats `json:"stats,omitempty"`
}

func runRun(args []string) error {
	lang, err := language.Parse(runLang)
	if err != nil {
		return fmt.Errorf("invalid --lang %q: %w", runLang, err)
	}

	rows := make([]trace.Row, 0, len(args))
	results := make([]traceResult, 0, len(args))
	failed := 0

	for _, path := range args {
		printVerbose("Replaying %s\n", path)

		res, stats, err := replayFile(path)
		row := trace.Row{Result: res, Name: path, Err: err}
		out := traceResult{Name: path, Valid: err == nil}
		if err != nil {
			failed++
			out.Error = err.Error()
			if !jsonOut {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			}
		} else {
			out.Ops = res.Ops
			out.PeakLive = res.PeakLive
			out.HeapSize = res.HeapSize
			out.Utilization = res.Utilization()
			out.Seconds = res.Elapsed.Seconds()
			out.Stats = stats
		}
		rows = append(rows, row)
		results = append(results, out)
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else if err := trace.WriteReport(os.Stdout, rows, lang); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d traces failed", failed, len(args))
	}
	return nil
}

// replayFile parses path and replays it against a fresh heap.
func replayFile(path string) (*trace.Result, *alloc.Stats, error) {
	tr, err := trace.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}

	h, err := newHeap()
	if err != nil {
		return nil, nil, err
	}
	defer h.Close()

	res, err := trace.Replay(tr, h.alloc, trace.Options{
		Check:  checkEachOp,
		Logger: slog.Default(),
	})
	if err != nil {
		return nil, nil, err
	}
	stats := h.alloc.Stats()
	return res, &stats, nil
}
