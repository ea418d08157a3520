package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/btalloc/arena/trace"
)

var (
	genOps     int
	genMaxSize int
	genSeed    int64
	genOutput  string
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().IntVar(&genOps, "ops", 1000, "Number of alloc and realloc ops to generate")
	cmd.Flags().IntVar(&genMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().Int64Var(&genSeed, "seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random valid trace",
		Long: `The gen command writes a random trace in the format run and dump read.
Every id is allocated before use and freed by the end of the trace.

Example:
  mmdriver gen --ops 5000 --max-size 1024 -o random.rep
  mmdriver gen --seed 42 | head`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	if genOps <= 0 {
		return fmt.Errorf("--ops must be positive, got %d", genOps)
	}
	if genMaxSize <= 0 {
		return fmt.Errorf("--max-size must be positive, got %d", genMaxSize)
	}

	seed := genSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tr := trace.Generate(rand.New(rand.NewSource(seed)), genOps, genMaxSize)

	if genOutput == "" {
		return tr.Write(os.Stdout)
	}

	f, err := os.Create(genOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := tr.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write trace: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d ops (seed %d) to %s\n", len(tr.Ops), seed, genOutput)
	return nil
}
