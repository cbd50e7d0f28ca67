package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	runCheck bool
	runFile  string
	runChunk int
	runMax   int
	runSeed  int64
	runJobs  int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runCheck, "check", false, "Run the full heap check after every operation")
	cmd.Flags().StringVar(&runFile, "file", "", "Back the heap with this file (single trace only)")
	cmd.Flags().IntVar(&runChunk, "chunk", 0, "Minimum growth in bytes (default 4096)")
	cmd.Flags().IntVar(&runMax, "max-heap", 0, "Heap ceiling in bytes (default 20 MiB)")
	cmd.Flags().Int64Var(&runSeed, "seed", 0, "Seed for payload patterns")
	cmd.Flags().IntVarP(&runJobs, "jobs", "j", 0, "Traces replayed in parallel (default GOMAXPROCS)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>...",
		Short: "Replay traces and report space utilization",
		Long: `The run command replays each trace against its own fresh allocator and
reports the peak payload, final heap size and utilization per trace, plus the
mean and standard deviation of utilization across all traces.

Traces may be plain text or compressed (.gz, .zst, .lz4).

Example:
  heapctl run traces/*.rep
  heapctl run binary-bal.rep.zst --check
  heapctl run coalescing.rep --file /tmp/coalescing.heap`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

// traceReport is one row of run output.
type traceReport struct {
	Name        string  `json:"name"`
	Ops         int     `json:"ops"`
	Allocs      int     `json:"allocs"`
	Frees       int     `json:"frees"`
	Reallocs    int     `json:"reallocs"`
	PeakPayload int     `json:"peak_payload"`
	HeapSize    int     `json:"heap_size"`
	Utilization float64 `json:"utilization"`
	GrowCalls   int     `json:"grow_calls"`
	Splits      int     `json:"splits"`
	Coalesces   int     `json:"coalesces"`
	Micros      int64   `json:"elapsed_us"`
}

// runSummary is the full run output.
type runSummary struct {
	Traces          []traceReport `json:"traces"`
	MeanUtilization float64       `json:"mean_utilization"`
	StdUtilization  float64       `json:"stddev_utilization"`
	TotalOps        int           `json:"total_ops"`
}

func runRun(ctx context.Context, args []string) error {
	if runFile != "" && len(args) > 1 {
		return errors.New("--file needs exactly one trace")
	}
	jobs := runJobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]trace.Result, len(args))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range args {
		g.Go(func() error {
			res, err := replayFile(ctx, path, heapConfig{
				file:  runFile,
				chunk: runChunk,
				max:   runMax,
			}, &trace.ReplayOptions{CheckEvery: runCheck, Seed: runSeed})
			if err != nil {
				return err
			}
			results[i] = res
			printVerbose("Replayed %s: %s ops\n", res.Name, formatNumber(int64(res.Ops)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	summary := summarize(results)
	if jsonOut {
		return printJSON(summary)
	}
	printRunTable(summary)
	return nil
}

// replayFile opens a trace, replays it on a fresh heap and closes the heap.
func replayFile(ctx context.Context, path string, cfg heapConfig, opts *trace.ReplayOptions) (trace.Result, error) {
	tr, err := trace.Open(path)
	if err != nil {
		return trace.Result{}, err
	}
	a, closeHeap, err := openHeap(cfg)
	if err != nil {
		return trace.Result{}, fmt.Errorf("%s: %w", tr.Name, err)
	}
	res, err := trace.Replay(ctx, tr, a, opts)
	if cerr := closeHeap(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = cerr
	}
	return res, err
}

func summarize(results []trace.Result) runSummary {
	var s runSummary
	utils := make([]float64, 0, len(results))
	for _, r := range results {
		s.Traces = append(s.Traces, traceReport{
			Name:        r.Name,
			Ops:         r.Ops,
			Allocs:      r.Allocs,
			Frees:       r.Frees,
			Reallocs:    r.Reallocs,
			PeakPayload: r.PeakPayload,
			HeapSize:    r.HeapSize,
			Utilization: r.Utilization,
			GrowCalls:   r.Stats.GrowCalls,
			Splits:      r.Stats.SplitCount,
			Coalesces:   r.Stats.CoalesceForward + r.Stats.CoalesceBackward,
			Micros:      r.Elapsed.Microseconds(),
		})
		utils = append(utils, r.Utilization)
		s.TotalOps += r.Ops
	}
	switch len(utils) {
	case 0:
	case 1:
		s.MeanUtilization = utils[0]
	default:
		s.MeanUtilization, s.StdUtilization = stat.MeanStdDev(utils, nil)
	}
	return s
}

func printRunTable(s runSummary) {
	printInfo("%-20s %10s %12s %12s %7s\n", "TRACE", "OPS", "PEAK", "HEAP", "UTIL")
	printInfo("%s\n", strings.Repeat("-", 65))
	for _, r := range s.Traces {
		printInfo("%-20s %10s %12s %12s %6.1f%%\n",
			r.Name,
			formatNumber(int64(r.Ops)),
			formatNumber(int64(r.PeakPayload)),
			formatNumber(int64(r.HeapSize)),
			r.Utilization*100)
		printVerbose("  grows=%d splits=%d coalesces=%d time=%dus\n",
			r.GrowCalls, r.Splits, r.Coalesces, r.Micros)
	}
	printInfo("%s\n", strings.Repeat("-", 65))
	printInfo("%-20s %10s %12s %12s %6.1f%% (stddev %.1f%%)\n",
		fmt.Sprintf("%d trace(s)", len(s.Traces)),
		formatNumber(int64(s.TotalOps)), "", "",
		s.MeanUtilization*100, s.StdUtilization*100)
}
