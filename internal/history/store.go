// Package history keeps a SQLite ledger of finished restoration jobs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"photo-restoration-studio/internal/job"
)

// Fixed-width so that finished_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded job.
type Entry struct {
	ID          string
	InputPath   string
	OutputDir   string
	Device      int
	WithScratch bool
	HighRes     bool
	Outcome     string
	OutputPath  string
	Error       string
	Started     time.Time
	Finished    time.Time
}

// Store persists entries.
type Store struct {
	db *sql.DB
}

var _ job.Recorder = (*Store)(nil)

// Open opens (and creates if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(pctx, `CREATE TABLE IF NOT EXISTS job_history (
  id           TEXT PRIMARY KEY,
  input_path   TEXT NOT NULL,
  output_dir   TEXT NOT NULL,
  device       INTEGER NOT NULL,
  with_scratch INTEGER NOT NULL,
  high_res     INTEGER NOT NULL,
  outcome      TEXT NOT NULL,
  output_path  TEXT,
  error        TEXT,
  started_at   TEXT NOT NULL,
  finished_at  TEXT NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create job_history: %w", err)
	}
	if _, err := db.ExecContext(pctx, `CREATE INDEX IF NOT EXISTS job_history_finished ON job_history(finished_at);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create job_history index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished job.
func (s *Store) Record(ctx context.Context, res job.Result) error {
	var errText sql.NullString
	if res.Err != nil {
		errText = sql.NullString{String: res.Err.Error(), Valid: true}
	}
	var output sql.NullString
	if res.OutputPath != "" {
		output = sql.NullString{String: res.OutputPath, Valid: true}
	}

	req := res.Request
	_, err := s.db.ExecContext(ctx, `INSERT INTO job_history
  (id, input_path, output_dir, device, with_scratch, high_res, outcome, output_path, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.InputPath, req.OutputDir, req.Device, req.WithScratch, req.HighRes,
		res.Outcome(), output, errText,
		res.Started.UTC().Format(timeLayout), res.Finished.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert job %s: %w", req.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, input_path, output_dir, device, with_scratch, high_res,
  outcome, output_path, error, started_at, finished_at
FROM job_history ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			output, errText   sql.NullString
			started, finished string
		)
		if err := rows.Scan(&e.ID, &e.InputPath, &e.OutputDir, &e.Device, &e.WithScratch, &e.HighRes,
			&e.Outcome, &output, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.OutputPath = output.String
		e.Error = errText.String
		if e.Started, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at for %s: %w", e.ID, err)
		}
		if e.Finished, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
