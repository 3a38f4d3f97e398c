package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/me/jobrun/pkg/model"
)

const lockRetryDelay = 50 * time.Millisecond

// JSONStore keeps stats as a single JSON object mapping job name to Stat.
// Every Put rewrites the whole file atomically.
type JSONStore struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewJSONStore returns a store backed by the JSON file at path.
// The file is created on the first Put.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	return &JSONStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger.With("component", "store", "backend", "json"),
	}
}

// Path returns the stats file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the stats file. A missing file is an empty map.
func (s *JSONStore) Load(_ context.Context) (map[string]model.Stat, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("stats file missing, starting empty", "path", s.path)
			return map[string]model.Stat{}, nil
		}
		return nil, fmt.Errorf("read stats %s: %w", s.path, err)
	}

	stats := map[string]model.Stat{}
	if len(bytes.TrimSpace(data)) == 0 {
		return stats, nil
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parse stats %s: %w", s.path, err)
	}
	return stats, nil
}

// Put merges stat into the file under an exclusive lock.
func (s *JSONStore) Put(ctx context.Context, stat model.Stat) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock stats %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("lock stats %s: not acquired", s.path)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("unlock stats file", "path", s.path, "error", err)
		}
	}()

	stats, err := s.Load(ctx)
	if err != nil {
		return err
	}
	// The name is in every entry too; the key keeps entries unique.
	stats[stat.Name] = stat

	data, err := json.MarshalIndent(stats, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := writeFileAtomic(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write stats %s: %w", s.path, err)
	}

	s.logger.Debug("stats written", "path", s.path, "job", stat.Name, "entries", len(stats))
	return nil
}

// Close is a no-op; the lock is only held during Put.
func (s *JSONStore) Close() error {
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
