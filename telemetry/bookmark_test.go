package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_NewRecord(t *testing.T) {
	bd := NewBookmarkDetector(10, 5)

	if got := bd.Check(GenerationStats{Generation: 0, BestPipes: 0}); hasBookmark(got, BookmarkNewRecord) {
		t.Error("zero pipes is not a record")
	}
	if got := bd.Check(GenerationStats{Generation: 1, BestPipes: 3}); !hasBookmark(got, BookmarkNewRecord) {
		t.Error("expected new_record bookmark")
	}
	if got := bd.Check(GenerationStats{Generation: 2, BestPipes: 3}); hasBookmark(got, BookmarkNewRecord) {
		t.Error("equal pipes is not a record")
	}
}

func TestBookmarkDetector_FirstCompletion(t *testing.T) {
	bd := NewBookmarkDetector(10, 5)

	bd.Check(GenerationStats{Generation: 0})
	if got := bd.Check(GenerationStats{Generation: 1, Completed: 2, BestPipes: 50}); !hasBookmark(got, BookmarkFirstCompletion) {
		t.Error("expected first_completion bookmark")
	}
	if got := bd.Check(GenerationStats{Generation: 2, Completed: 4, BestPipes: 50}); hasBookmark(got, BookmarkFirstCompletion) {
		t.Error("first_completion must trigger once")
	}
}

func TestBookmarkDetector_Plateau(t *testing.T) {
	bd := NewBookmarkDetector(10, 3)
	bd.Check(GenerationStats{Generation: 0, BestPipes: 2})

	var fired []int
	for gen := 1; gen <= 8; gen++ {
		if hasBookmark(bd.Check(GenerationStats{Generation: gen, BestPipes: 2}), BookmarkPlateau) {
			fired = append(fired, gen)
		}
	}
	if len(fired) != 1 || fired[0] != 3 {
		t.Errorf("plateau fired at %v, want [3]", fired)
	}
}

func TestBookmarkDetector_Breakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10, 50)

	for i := 0; i < 5; i++ {
		bd.Check(GenerationStats{Generation: i, FitnessMean: 1.0})
	}

	got := bd.Check(GenerationStats{Generation: 5, FitnessMean: 4.0})
	if !hasBookmark(got, BookmarkBreakthrough) {
		t.Error("expected fitness_breakthrough bookmark")
	}
	if got := bd.Check(GenerationStats{Generation: 6, FitnessMean: 1.2}); hasBookmark(got, BookmarkBreakthrough) {
		t.Error("ordinary generation flagged as breakthrough")
	}
}
