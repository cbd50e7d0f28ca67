package format

import "testing"

func TestAlign8(t *testing.T) {
	cases := map[int]int{0: 0, 1: 8, 7: 8, 8: 8, 9: 16, 16: 16, 17: 24}
	for in, want := range cases {
		if got := Align8(in); got != want {
			t.Fatalf("Align8(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAlignChunk(t *testing.T) {
	cases := map[int]int{1: 4096, 4096: 4096, 4097: 8192}
	for in, want := range cases {
		if got := AlignChunk(in); got != want {
			t.Fatalf("AlignChunk(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAdjustedSize(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{1, 16},
		{8, 16},
		{9, 24},
		{16, 24},
		{17, 32},
		{90, 104},
		{100, 112},
		{4096, 4104},
	}
	for _, tc := range cases {
		got := AdjustedSize(tc.size)
		if got != tc.want {
			t.Fatalf("AdjustedSize(%d) = %d, want %d", tc.size, got, tc.want)
		}
		if !IsAligned(got) {
			t.Fatalf("AdjustedSize(%d) = %d is not aligned", tc.size, got)
		}
		if got < tc.size+Overhead {
			t.Fatalf("AdjustedSize(%d) = %d leaves no room for tags", tc.size, got)
		}
	}
}
