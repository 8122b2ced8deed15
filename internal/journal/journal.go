// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records pipeline runs in a SQLite database and writes
// per-run YAML reports.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/printandscan/pkg/types"
)

// DefaultHistory is the number of runs Recent returns when limit is not
// positive.
const DefaultHistory = 20

// Store is a run journal backed by SQLite.
type Store struct {
	db *sql.DB
}

// Entry is one journaled run.
type Entry struct {
	ID     int64
	Report types.RunReport
}

// Open opens or creates the journal at path, creating its parent directory
// and schema when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			backend TEXT NOT NULL,
			dpi INTEGER NOT NULL,
			seed TEXT NOT NULL,
			page_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			page_index INTEGER NOT NULL,
			ordinal TEXT NOT NULL,
			angle REAL NOT NULL,
			PRIMARY KEY (run_id, page_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores report and its pages in one transaction and returns the
// run's id.
func (s *Store) Record(ctx context.Context, report *types.RunReport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	finished := ""
	if !report.FinishedAt.IsZero() {
		finished = report.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	// Seeds use the full uint64 range, which SQLite integers cannot hold.
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (input, output, backend, dpi, seed, page_count, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Input, report.Output, string(report.Backend), report.DPI,
		strconv.FormatUint(report.Seed, 10), report.PageCount, string(report.Status), report.Error,
		report.StartedAt.UTC().Format(time.RFC3339Nano), finished,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (run_id, page_index, ordinal, angle) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range report.Pages {
		if _, err := stmt.ExecContext(ctx, id, p.Index, p.Ordinal, p.Angle); err != nil {
			return 0, fmt.Errorf("inserting page %d: %w", p.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first, with their pages.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistory
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, output, backend, dpi, seed, page_count, status, error, started_at, finished_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                     Entry
			backend, status, seed string
			started               string
			errText, finished     sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Report.Input, &e.Report.Output, &backend, &e.Report.DPI,
			&seed, &e.Report.PageCount, &status, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.Report.Backend = types.Backend(backend)
		e.Report.Status = types.RunStatus(status)
		e.Report.Error = errText.String
		if e.Report.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("run %d: parsing seed %q: %w", e.ID, seed, err)
		}
		if e.Report.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %d: parsing start time: %w", e.ID, err)
		}
		if finished.String != "" {
			if e.Report.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
				return nil, fmt.Errorf("run %d: parsing finish time: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range entries {
		pages, err := s.pages(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Report.Pages = pages
	}
	return entries, nil
}

func (s *Store) pages(ctx context.Context, runID int64) ([]types.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_index, ordinal, angle FROM pages WHERE run_id = ? ORDER BY page_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying pages of run %d: %w", runID, err)
	}
	defer rows.Close()

	var pages []types.PageRecord
	for rows.Next() {
		var p types.PageRecord
		if err := rows.Scan(&p.Index, &p.Ordinal, &p.Angle); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
