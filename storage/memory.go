package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

var errNotInitialized = errors.New("store is not initialized")

// MemoryStore keeps run history in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	generations map[string][]telemetry.GenerationStats
	champions   map[string]telemetry.HallEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.generations = make(map[string][]telemetry.GenerationStats)
	s.champions = make(map[string]telemetry.HallEntry)
	return nil
}

// SaveGeneration stores stats, replacing an earlier record of the same
// generation. Records stay ordered by generation.
func (s *MemoryStore) SaveGeneration(_ context.Context, runID string, stats telemetry.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	history := s.generations[runID]
	idx := sort.Search(len(history), func(i int) bool { return history[i].Generation >= stats.Generation })
	if idx < len(history) && history[idx].Generation == stats.Generation {
		history[idx] = stats
		return nil
	}
	history = append(history, telemetry.GenerationStats{})
	copy(history[idx+1:], history[idx:])
	history[idx] = stats
	s.generations[runID] = history
	return nil
}

func (s *MemoryStore) Generations(_ context.Context, runID string) ([]telemetry.GenerationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, errNotInitialized
	}

	history := s.generations[runID]
	out := make([]telemetry.GenerationStats, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, runID string, champion telemetry.HallEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	s.champions[runID] = champion
	return nil
}

func (s *MemoryStore) Champion(_ context.Context, runID string) (telemetry.HallEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return telemetry.HallEntry{}, false, errNotInitialized
	}

	champion, ok := s.champions[runID]
	return champion, ok, nil
}

// Runs lists every run with history or a champion, sorted.
func (s *MemoryStore) Runs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, errNotInitialized
	}

	seen := make(map[string]bool)
	for id := range s.generations {
		seen[id] = true
	}
	for id := range s.champions {
		seen[id] = true
	}
	runs := make([]string, 0, len(seen))
	for id := range seen {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}

func (s *MemoryStore) Close() error { return nil }
