package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/mm"
	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	dumpOps      int
	dumpFile     string
	dumpFreeOnly bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpOps, "ops", 0, "Stop after this many operations (0 = all)")
	cmd.Flags().StringVar(&dumpFile, "file", "", "Back the heap with this file")
	cmd.Flags().BoolVar(&dumpFreeOnly, "free-only", false, "List only free blocks")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <trace>",
		Short: "Replay a trace and print the resulting block layout",
		Long: `The dump command replays a trace (optionally only its first operations)
and prints every block between the prologue and the epilogue, the free list
from root to top, and the allocator counters.

Example:
  heapctl dump traces/short1.rep --ops 4
  heapctl dump traces/short1.rep --ops 4 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), args)
		},
	}
	return cmd
}

type blockReport struct {
	Offset    uint32 `json:"offset"`
	Size      int    `json:"size"`
	Allocated bool   `json:"allocated"`
}

type dumpReport struct {
	Trace    string        `json:"trace"`
	Ops      int           `json:"ops"`
	HeapSize int           `json:"heap_size"`
	Blocks   []blockReport `json:"blocks"`
	FreeList []uint32      `json:"free_list"`
	Stats    mm.Stats      `json:"stats"`
}

func runDump(ctx context.Context, args []string) error {
	tr, err := trace.Open(args[0])
	if err != nil {
		return err
	}
	if dumpOps > 0 && dumpOps < len(tr.Ops) {
		tr.Ops = tr.Ops[:dumpOps]
	}

	a, closeHeap, err := openHeap(heapConfig{file: dumpFile})
	if err != nil {
		return err
	}
	defer func() { _ = closeHeap(context.WithoutCancel(ctx)) }()

	res, err := trace.Replay(ctx, tr, a, nil)
	if err != nil {
		return err
	}

	report := dumpReport{
		Trace:    tr.Name,
		Ops:      res.Ops,
		HeapSize: a.HeapSize(),
		FreeList: a.FreeList(),
		Stats:    a.Stats(),
	}
	it := a.Blocks()
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if dumpFreeOnly && b.Allocated {
			continue
		}
		report.Blocks = append(report.Blocks, blockReport{
			Offset:    b.Ref,
			Size:      b.Size,
			Allocated: b.Allocated,
		})
	}

	if jsonOut {
		return printJSON(report)
	}
	printDump(report)
	return nil
}

func printDump(r dumpReport) {
	printInfo("Heap after %s ops of %s (%s)\n\n", formatNumber(int64(r.Ops)), r.Trace, formatBytes(int64(r.HeapSize)))

	printInfo("%-12s %10s  %s\n", "OFFSET", "SIZE", "STATE")
	for _, b := range r.Blocks {
		state := "free"
		if b.Allocated {
			state = "alloc"
		}
		printInfo("0x%08X %12s  %s\n", b.Offset, formatNumber(int64(b.Size)), state)
	}

	printInfo("\nFree list (%d):", len(r.FreeList))
	for _, bp := range r.FreeList {
		printInfo(" 0x%X", bp)
	}
	printInfo("\n\n")

	s := r.Stats
	printInfo("Blocks: %d free, %s free bytes, largest %s\n",
		s.FreeBlocks, formatNumber(s.FreeBytes), formatNumber(int64(s.LargestFree)))
	printInfo("Calls:  malloc=%d free=%d realloc=%d grow=%d\n",
		s.MallocCalls, s.FreeCalls, s.ReallocCalls, s.GrowCalls)
	printInfo("Merges: forward=%d backward=%d, splits=%d\n",
		s.CoalesceForward, s.CoalesceBackward, s.SplitCount)
	printVerbose("Live:   %s bytes (peak %s)\n",
		formatNumber(s.LiveBytes), formatNumber(s.PeakLiveBytes))
}
