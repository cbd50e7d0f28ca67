package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/trace"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <trace>...",
		Short: "Replay traces with a full heap check after every operation",
		Long: `The check command replays each trace and validates every heap invariant
after each operation: boundary tags, coalescing, free-list order and
contents, and conservation of heap bytes. It stops at the first violation.

Example:
  heapctl check traces/short1.rep
  heapctl check traces/*.rep.zst`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckTraces(cmd.Context(), args)
		},
	}
	return cmd
}

type checkReport struct {
	Name string `json:"name"`
	Ops  int    `json:"ops"`
	OK   bool   `json:"ok"`
}

func runCheckTraces(ctx context.Context, args []string) error {
	reports := make([]checkReport, 0, len(args))
	for _, path := range args {
		res, err := replayFile(ctx, path, heapConfig{}, &trace.ReplayOptions{CheckEvery: true})
		if err != nil {
			return err
		}
		reports = append(reports, checkReport{Name: res.Name, Ops: res.Ops, OK: true})
		if !jsonOut {
			printInfo("ok  %-20s %s ops checked\n", res.Name, formatNumber(int64(res.Ops)))
		}
	}
	if jsonOut {
		return printJSON(reports)
	}
	return nil
}
