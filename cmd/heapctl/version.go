package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/heap/mm"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// versionReport describes the build and the heap layout it produces, so a
// heap file can be matched against the tool that reads it.
type versionReport struct {
	Version      string `json:"version"`
	WordSize     int    `json:"word_size"`
	Alignment    int    `json:"alignment"`
	MinBlockSize int    `json:"min_block_size"`
	ChunkSize    int    `json:"chunk_size"`
	MaxHeap      int    `json:"default_max_heap"`
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and heap layout parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	})
}

func runVersion() error {
	layout := mm.Layout()
	r := versionReport{
		Version:      version,
		WordSize:     layout.WordSize,
		Alignment:    layout.Alignment,
		MinBlockSize: layout.MinBlockSize,
		ChunkSize:    mm.DefaultOptions.ChunkSize,
		MaxHeap:      memlib.DefaultMaxHeap,
	}
	if jsonOut {
		return printJSON(r)
	}
	printInfo("heapctl %s\n", r.Version)
	printInfo("  word size:  %d bytes\n", r.WordSize)
	printInfo("  alignment:  %d bytes\n", r.Alignment)
	printInfo("  min block:  %d bytes\n", r.MinBlockSize)
	printInfo("  chunk:      %s\n", formatBytes(int64(r.ChunkSize)))
	printInfo("  max heap:   %s (in-process)\n", formatBytes(int64(r.MaxHeap)))
	return nil
}
