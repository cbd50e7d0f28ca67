package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	genOps     int
	genSeed    int64
	genMaxSize int
	genRealloc int
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().IntVar(&genOps, "ops", 1000, "Number of random operations")
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&genMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().IntVar(&genRealloc, "realloc", 10, "Percentage of operations that are reallocs")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <output>",
		Short: "Generate a random well-formed trace",
		Long: `The gen command writes a synthetic trace. Every id is freed by the end
of the trace. The output is compressed according to its extension
(.gz, .zst, .lz4).

Example:
  heapctl gen random.rep --ops 5000 --seed 7
  heapctl gen random.rep.zst --max-size 65536 --realloc 25`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(args)
		},
	}
	return cmd
}

func runGen(args []string) error {
	tr := trace.Generate(trace.GenOptions{
		Seed:    genSeed,
		Ops:     genOps,
		MaxSize: genMaxSize,
		Realloc: genRealloc,
	})
	if err := trace.Save(args[0], tr); err != nil {
		return err
	}
	allocs, frees, reallocs := tr.Counts()
	if jsonOut {
		return printJSON(map[string]int{
			"ops":      len(tr.Ops),
			"ids":      tr.NumIDs,
			"allocs":   allocs,
			"frees":    frees,
			"reallocs": reallocs,
		})
	}
	printInfo("Wrote %s: %s ops (%d allocs, %d frees, %d reallocs)\n",
		args[0], formatNumber(int64(len(tr.Ops))), allocs, frees, reallocs)
	return nil
}
