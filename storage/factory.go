package storage

import (
	"fmt"

	"github.com/KevinHern/flappy-bird-ai/config"
)

// NewStore returns an uninitialized store of the given kind.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		if sqlitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
