// Package store persists job execution stats.
package store

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/me/jobrun/pkg/model"
)

// Store keeps the latest Stat of every job, keyed by job name.
//
// Access is expected from a single runner process at a time; the JSON backend
// additionally serializes read-merge-write cycles with an advisory file lock.
type Store interface {
	// Load returns the latest stat per job. A store that does not exist yet
	// yields an empty map.
	Load(ctx context.Context) (map[string]model.Stat, error)

	// Put records stat, replacing any previous entry for the same job name.
	Put(ctx context.Context, stat model.Stat) error

	Close() error
}

// Record is one historical execution kept by stores that retain history.
type Record struct {
	RunID      string     `json:"run_id"`
	Stat       model.Stat `json:"stat"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// HistoryStore is implemented by stores that keep every execution.
type HistoryStore interface {
	Store
	History(ctx context.Context, name string) ([]Record, error)
}

// IsSQLitePath reports whether path selects the SQLite backend.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Open returns the backend selected by the extension of path.
// runID tags rows written by backends that keep history.
func Open(ctx context.Context, path, runID string, logger *slog.Logger) (Store, error) {
	if IsSQLitePath(path) {
		st, err := NewSQLiteStore(path, runID, logger)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
	return NewJSONStore(path, logger), nil
}

// LoadFile returns the latest stats kept at path without creating anything.
// A stats file that does not exist yet yields an empty map for both backends.
func LoadFile(ctx context.Context, path string, logger *slog.Logger) (map[string]model.Stat, error) {
	if !IsSQLitePath(path) {
		return NewJSONStore(path, logger).Load(ctx)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("stats database missing, starting empty", "path", path)
		return map[string]model.Stat{}, nil
	}
	st, err := Open(ctx, path, "", logger)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx)
}
