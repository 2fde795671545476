package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord       BookmarkType = "new_record"
	BookmarkFirstCompletion BookmarkType = "first_completion"
	BookmarkBreakthrough    BookmarkType = "fitness_breakthrough"
	BookmarkPlateau         BookmarkType = "plateau"
)

// Bookmark marks a generation worth looking at.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(log *slog.Logger) {
	log.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting generations from their stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	bestPipes   int
	completed   bool
	plateau     int // generations since bestPipes improved
	plateauSize int
}

// NewBookmarkDetector creates a detector with the given history size. A
// plateau is reported after plateauSize generations without a new record.
func NewBookmarkDetector(historySize, plateauSize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	if plateauSize < 1 {
		plateauSize = 10
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
		plateauSize: plateauSize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if stats.BestPipes > bd.bestPipes {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkNewRecord,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Best pipes passed rose from %d to %d", bd.bestPipes, stats.BestPipes),
		})
		bd.bestPipes = stats.BestPipes
		bd.plateau = 0
	} else {
		bd.plateau++
		if bd.plateau == bd.plateauSize {
			bookmarks = append(bookmarks, Bookmark{
				Type:        BookmarkPlateau,
				Generation:  stats.Generation,
				Description: fmt.Sprintf("No new record for %d generations (best %d pipes)", bd.plateau, bd.bestPipes),
			})
		}
	}

	if stats.Completed > 0 && !bd.completed {
		bd.completed = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkFirstCompletion,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("%d organisms completed the track", stats.Completed),
		})
	}

	if b := bd.checkBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkBreakthrough fires when mean fitness doubles the rolling average.
func (bd *BookmarkDetector) checkBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FitnessMean
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.FitnessMean > avg*2 {
		return &Bookmark{
			Type:        BookmarkBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Mean fitness %.2f is %.1fx average (%.2f)", stats.FitnessMean, stats.FitnessMean/avg, avg),
		}
	}
	return nil
}
