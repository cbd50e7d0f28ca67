package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestInspectCommand(t *testing.T) {
	resetFlags()
	quiet = true
	path := writeTrace(t, "short.rep", shortTrace)
	heapFile := filepath.Join(t.TempDir(), "short.heap")

	// Stop before the final free so the file holds live blocks.
	dumpOps = 5
	dumpFile = heapFile
	if _, err := captureOutput(t, func() error {
		return runDump(context.Background(), []string{path})
	}); err != nil {
		t.Fatalf("runDump() error = %v", err)
	}

	resetFlags()
	jsonOut = true
	output, err := captureOutput(t, func() error {
		return runInspect([]string{heapFile})
	})
	if err != nil {
		t.Fatalf("runInspect() error = %v", err)
	}
	var got inspectReport
	decodeJSON(t, output, &got)
	if got.Blocks == 0 || got.FreeBlocks == 0 {
		t.Errorf("report = %+v", got)
	}
	if got.AllocBytes != 32+648 {
		t.Errorf("AllocBytes = %d, want %d", got.AllocBytes, 32+648)
	}
}

func TestInspectCommandCorrupt(t *testing.T) {
	resetFlags()
	heapFile := filepath.Join(t.TempDir(), "junk.heap")
	if err := os.WriteFile(heapFile, make([]byte, 64), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := captureOutput(t, func() error {
		return runInspect([]string{heapFile})
	}); err == nil {
		t.Errorf("runInspect() expected an error for a zeroed file")
	}
}
