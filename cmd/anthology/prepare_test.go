package main

import (
	"testing"

	"github.com/achorg/anthology/internal/paper"
)

func TestPaperOrders(t *testing.T) {
	papers := []*paper.Paper{
		{VolumeID: 1, PaperID: 1},
		{VolumeID: 1, PaperID: 2},
		{VolumeID: 1, PaperID: 5},
		{VolumeID: 2, PaperID: 1},
		{VolumeID: 2, PaperID: 3},
	}

	got := paperOrders(papers)
	want := []int{1, 2, 3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestWithoutFailed(t *testing.T) {
	papers := []*paper.Paper{
		{OutputDir: "out/vol0001/alpha"},
		{OutputDir: "out/vol0001/beta"},
		{OutputDir: "out/vol0001/gamma"},
	}

	kept := withoutFailed(papers, []string{"beta"})
	if len(kept) != 2 {
		t.Fatalf("kept %d papers, want 2", len(kept))
	}
	if kept[0].Slug() != "alpha" || kept[1].Slug() != "gamma" {
		t.Errorf("kept = [%s, %s]", kept[0].Slug(), kept[1].Slug())
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString(short) = %q", got)
	}
	if got := truncateString("a very long title indeed", 10); got != "a very ..." {
		t.Errorf("truncateString = %q", got)
	}
}
