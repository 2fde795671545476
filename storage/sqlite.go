package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/KevinHern/flappy-bird-ai/telemetry"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps run history in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, runID string, stats telemetry.GenerationStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := encodeGeneration(stats)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, fitness_max, best_pipes, completed, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			fitness_max = excluded.fitness_max,
			best_pipes = excluded.best_pipes,
			completed = excluded.completed,
			payload = excluded.payload
	`, runID, stats.Generation, stats.FitnessMax, stats.BestPipes, stats.Completed, payload)
	return err
}

func (s *SQLiteStore) Generations(ctx context.Context, runID string) ([]telemetry.GenerationStats, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, payload FROM generations
		WHERE run_id = ?
		ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []telemetry.GenerationStats
	for rows.Next() {
		var (
			generation int
			payload    []byte
		)
		if err := rows.Scan(&generation, &payload); err != nil {
			return nil, err
		}
		stats, err := decodeGeneration(payload)
		if err != nil {
			return nil, fmt.Errorf("decode generation %s/%d: %w", runID, generation, err)
		}
		history = append(history, stats)
	}
	return history, rows.Err()
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, runID string, champion telemetry.HallEntry) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := encodeChampion(champion)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (run_id, generation, fitness, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			generation = excluded.generation,
			fitness = excluded.fitness,
			payload = excluded.payload
	`, runID, champion.Generation, champion.Fitness, payload)
	return err
}

func (s *SQLiteStore) Champion(ctx context.Context, runID string) (telemetry.HallEntry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return telemetry.HallEntry{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM champions WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return telemetry.HallEntry{}, false, nil
		}
		return telemetry.HallEntry{}, false, err
	}

	champion, err := decodeChampion(payload)
	if err != nil {
		return telemetry.HallEntry{}, false, fmt.Errorf("decode champion %s: %w", runID, err)
	}
	return champion, true, nil
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id FROM generations
		UNION
		SELECT run_id FROM champions
		ORDER BY run_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			fitness_max REAL NOT NULL,
			best_pipes INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT PRIMARY KEY,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
