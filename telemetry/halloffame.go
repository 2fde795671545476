package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/KevinHern/flappy-bird-ai/neural"
)

// HallEntry is a generation champion kept for later replay or seeding.
type HallEntry struct {
	Generation int                 `json:"generation"`
	Fitness    float64             `json:"fitness"`
	Pipes      int                 `json:"pipes_passed"`
	Completion float64             `json:"completion_pct"`
	Genome     neural.GenomeRecord `json:"genome"`
}

// HallOfFame keeps the best champions seen during a run, sorted by
// descending fitness.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 10
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider inserts entry if it ranks among the best. Equal fitness keeps the
// earlier entry first. Returns true if the entry was added.
func (hof *HallOfFame) Consider(entry HallEntry) bool {
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})

	if len(hof.entries) >= hof.maxSize && idx >= hof.maxSize {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Entries returns the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry { return hof.entries }

// Size returns the number of entries.
func (hof *HallOfFame) Size() int { return len(hof.entries) }

// Top returns the best entry.
func (hof *HallOfFame) Top() (HallEntry, bool) {
	if len(hof.entries) == 0 {
		return HallEntry{}, false
	}
	return hof.entries[0], true
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFame reads a hall of fame JSON file.
func LoadHallOfFame(path string) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(max(len(entries), 10))
	for _, e := range entries {
		hof.Consider(e)
	}
	return hof, nil
}
