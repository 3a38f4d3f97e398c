package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/jobrun/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every execution in a SQLite database and serves the
// most recent one per job.
type SQLiteStore struct {
	db     *sql.DB
	runID  string
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath, runID string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		runID:  runID,
		logger: logger.With("component", "store", "backend", "sqlite"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// Put appends stat to the history.
func (s *SQLiteStore) Put(ctx context.Context, stat model.Stat) error {
	s.logger.Debug("sql", "op", "insert", "table", "job_stats", "job", stat.Name)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_stats (run_id, name, time, size, return_code, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.runID, stat.Name, stat.Time, stat.Size, stat.ReturnCode,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert stat %s: %w", stat.Name, err)
	}
	return nil
}

// Load returns the latest stat of every job.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]model.Stat, error) {
	s.logger.Debug("sql", "op", "select", "table", "job_stats")

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, time, size, return_code FROM job_stats s
		 WHERE id = (SELECT MAX(id) FROM job_stats WHERE name = s.name)`)
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]model.Stat{}
	for rows.Next() {
		var st model.Stat
		if err := rows.Scan(&st.Name, &st.Time, &st.Size, &st.ReturnCode); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats[st.Name] = st
	}
	return stats, rows.Err()
}

// History returns every recorded execution of the named job, oldest first.
func (s *SQLiteStore) History(ctx context.Context, name string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, name, time, size, return_code, recorded_at FROM job_stats
		 WHERE name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("select history %s: %w", name, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var recordedAt string
		if err := rows.Scan(&rec.RunID, &rec.Stat.Name, &rec.Stat.Time, &rec.Stat.Size,
			&rec.Stat.ReturnCode, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
