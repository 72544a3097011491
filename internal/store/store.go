// Package store persists JSON values under fixed string keys.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Keys of the persisted collections.
const (
	KeyTasks          = "nestora_chores"
	KeySettings       = "nestora_settings"
	KeyCookingHistory = "nestora_cooking_history"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrInvalidKey     = errors.New("invalid storage key")
)

// Store loads and saves JSON-encoded values by key. Last writer wins.
type Store interface {
	// Load decodes the value under key into v. It reports false, with no
	// error, when nothing is stored under key.
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open returns the backend named by backend, rooted at dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dataDir)
	case BackendSQLite:
		return NewSQLiteStore(dataDir)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
