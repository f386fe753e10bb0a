// Package metrics records evaluation runs in a SQLite database so accuracy
// can be tracked across engine versions and tuning changes.
package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrRunNotFound is returned when a run id is unknown
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL, -- Unix nanoseconds
    label TEXT NOT NULL,
    strategy TEXT NOT NULL,
    ignore_trivial INTEGER NOT NULL,
    correct INTEGER NOT NULL,
    total INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

CREATE TABLE IF NOT EXISTS run_files (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    correct INTEGER NOT NULL,
    total INTEGER NOT NULL,
    PRIMARY KEY (run_id, name)
);
`

// FileRecord is the score of one file within a run
type FileRecord struct {
	Name    string
	Correct int
	Total   int
}

// Run is one recorded set evaluation
type Run struct {
	ID            string
	CreatedAt     time.Time
	Label         string
	Strategy      string
	IgnoreTrivial bool
	Correct       int
	Total         int
	Files         []FileRecord
}

// Accuracy returns Correct/Total, or 0 for an empty run
func (r Run) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Store is a SQLite-backed run history
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its per-file scores in one transaction. An
// empty ID is replaced by a new UUID and a zero CreatedAt by the current
// time. Returns the run id.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, label, strategy, ignore_trivial, correct, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Label, run.Strategy, boolToInt(run.IgnoreTrivial), run.Correct, run.Total)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, f := range run.Files {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, name, correct, total) VALUES (?, ?, ?, ?)`,
			run.ID, f.Name, f.Correct, f.Total)
		if err != nil {
			return "", fmt.Errorf("insert run file %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

// Runs lists the most recent runs first, without per-file scores. A limit
// <= 0 returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, created_at, label, strategy, ignore_trivial, correct, total
	          FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run loads one run including its per-file scores.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, label, strategy, ignore_trivial, correct, total FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, correct, total FROM run_files WHERE run_id = ? ORDER BY name`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Name, &f.Correct, &f.Total); err != nil {
			return Run{}, fmt.Errorf("scan run file: %w", err)
		}
		r.Files = append(r.Files, f)
	}
	return r, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		created int64
		ignore  int
	)
	if err := sc.Scan(&r.ID, &created, &r.Label, &r.Strategy, &ignore, &r.Correct, &r.Total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.CreatedAt = time.Unix(0, created)
	r.IgnoreTrivial = ignore != 0
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
