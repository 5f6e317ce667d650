// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore persists run results in SQLite so past evaluations can
// be listed, queried by status or channel, exported, and compared.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

const (
	dbFile            = "runs.db"
	defaultMaxResults = 20

	// timeLayout is fixed-width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrRunNotFound is returned when no stored run matches an ID.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
	logger     *zap.Logger
}

// NewStore opens or creates dir/runs.db and its schema.
func NewStore(cfg types.StoreConfig, logger *zap.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("store dir is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		dir:        cfg.Dir,
		maxResults: maxResults,
		logger:     logger.Named("runstore"),
	}
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

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			catalog_version TEXT NOT NULL,
			params TEXT NOT NULL,
			created_at TEXT NOT NULL,
			channels INTEGER NOT NULL,
			applicable INTEGER NOT NULL,
			missing_inputs INTEGER NOT NULL,
			underconstrained INTEGER NOT NULL,
			document TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			channel TEXT NOT NULL,
			method_id TEXT NOT NULL,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			missing_inputs TEXT NOT NULL,
			unstable_inputs TEXT NOT NULL,
			diagnostics TEXT NOT NULL,
			PRIMARY KEY (run_id, channel, method_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_method ON reports(method_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores run and all of its reports in one transaction. Saving the
// same run ID twice is an error.
func (s *Store) Save(ctx context.Context, run *types.RunResult) error {
	if run.RunID == "" {
		return errors.New("saving run: run ID is empty")
	}
	doc, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("marshaling params: %w", err)
	}
	counts := run.StatusCounts()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, catalog_version, params, created_at, channels,
			applicable, missing_inputs, underconstrained, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Source, run.CatalogVersion, string(params),
		run.CreatedAt.UTC().Format(timeLayout), len(run.Channels),
		counts[types.StatusApplicable], counts[types.StatusMissingInputs], counts[types.StatusUnderconstrained],
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reports (run_id, channel, method_id, category, status,
			missing_inputs, unstable_inputs, diagnostics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range run.Channels {
		for _, r := range ch.Reports {
			cols, err := encodeColumns(r.MissingInputs, r.UnstableInputs, r.Diagnostics)
			if err != nil {
				return fmt.Errorf("marshaling report %s/%s: %w", ch.Channel, r.MethodID, err)
			}
			_, err = stmt.ExecContext(ctx,
				run.RunID, ch.Channel, r.MethodID, r.Category, string(r.Status),
				cols[0], cols[1], cols[2],
			)
			if err != nil {
				return fmt.Errorf("inserting report %s/%s: %w", ch.Channel, r.MethodID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", run.RunID, err)
	}
	s.logger.Debug("run saved", zap.String("run_id", run.RunID), zap.Int("channels", len(run.Channels)))
	return nil
}

// encodeColumns renders each value as a JSON text column.
func encodeColumns(values ...any) ([]string, error) {
	cols := make([]string, len(values))
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		cols[i] = string(b)
	}
	return cols, nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID               string    `json:"id" yaml:"id"`
	Source           string    `json:"source" yaml:"source"`
	CatalogVersion   string    `json:"catalog_version" yaml:"catalog_version"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	Channels         int       `json:"channels" yaml:"channels"`
	Applicable       int       `json:"applicable" yaml:"applicable"`
	MissingInputs    int       `json:"missing_inputs" yaml:"missing_inputs"`
	Underconstrained int       `json:"underconstrained" yaml:"underconstrained"`
}

// ListRuns returns up to limit runs, newest first. Zero uses the store
// default.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, catalog_version, created_at, channels,
			applicable, missing_inputs, underconstrained
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r       RunSummary
			created string
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.CatalogVersion, &created, &r.Channels,
			&r.Applicable, &r.MissingInputs, &r.Underconstrained); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing created_at of run %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResolveID expands a unique ID prefix to the full run ID.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("resolving run %s: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scanning run ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("run ID prefix %q is ambiguous", prefix)
}

// Run loads the stored run whose ID is id or a unique prefix of it.
func (s *Store) Run(ctx context.Context, id string) (*types.RunResult, error) {
	full, err := s.ResolveID(ctx, id)
	if err != nil {
		return nil, err
	}
	var doc string
	if err := s.db.QueryRowContext(ctx, `SELECT document FROM runs WHERE id = ?`, full).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("loading run %s: %w", full, err)
	}
	var run types.RunResult
	if err := json.Unmarshal([]byte(doc), &run); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", full, err)
	}
	return &run, nil
}

// Delete removes a run and its reports.
func (s *Store) Delete(ctx context.Context, id string) error {
	full, err := s.ResolveID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, full); err != nil {
		return fmt.Errorf("deleting run %s: %w", full, err)
	}
	s.logger.Debug("run deleted", zap.String("run_id", full))
	return nil
}
