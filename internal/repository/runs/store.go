// Package runs persists evaluation runs in SQLite.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// timeLayout has fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps evaluation runs and their per-query predictions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runs: open db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("runs: wal mode: %w", err)
	}
	if _, err := sqlDB.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("runs: foreign keys: %w", err)
	}

	s := &Store{db: sqlDB}
	if err := s.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("runs: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			created_at   TEXT NOT NULL,
			params_json  TEXT NOT NULL,
			metrics_json TEXT NOT NULL,
			total        INTEGER NOT NULL,
			correct      INTEGER NOT NULL,
			accuracy     REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			query_id TEXT NOT NULL,
			label    TEXT NOT NULL DEFAULT '',
			truth    TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, query_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("runs: close: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("runs: ping: %w", err)
	}
	return nil
}

// Save stores a run and its predictions in one transaction.
func (s *Store) Save(ctx context.Context, run *evaluation.Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("runs: encode params: %w", err)
	}
	metrics, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("runs: encode metrics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("runs: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, created_at, params_json, metrics_json, total, correct, accuracy)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), string(params), string(metrics),
		run.Total, run.Correct, run.Accuracy,
	); err != nil {
		return fmt.Errorf("runs: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO predictions(run_id, query_id, label, truth) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("runs: prepare predictions: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range run.Predictions {
		if _, err := stmt.ExecContext(ctx, run.ID, p.QueryID, p.Label, p.Truth); err != nil {
			return fmt.Errorf("runs: insert prediction %s: %w", p.QueryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("runs: commit: %w", err)
	}
	return nil
}

// Get loads a run with its metrics and predictions.
func (s *Store) Get(ctx context.Context, id string) (*evaluation.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, params_json, metrics_json, total, correct, accuracy
		 FROM runs WHERE id = ?`, id)

	var (
		run         evaluation.Run
		created     string
		params, met string
	)
	err := row.Scan(&run.ID, &created, &params, &met, &run.Total, &run.Correct, &run.Accuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("runs: get %s: %w", id, err)
	}
	if err := decodeSummary(&run.RunSummary, created, params); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(met), &run.Metrics); err != nil {
		return nil, fmt.Errorf("runs: decode metrics: %w", err)
	}

	preds, err := s.predictions(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Predictions = preds
	return &run, nil
}

// List returns run summaries, newest first. limit <= 0 uses DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]evaluation.RunSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, params_json, total, correct, accuracy
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runs: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []evaluation.RunSummary
	for rows.Next() {
		var (
			sum             evaluation.RunSummary
			created, params string
		)
		if err := rows.Scan(&sum.ID, &created, &params, &sum.Total, &sum.Correct, &sum.Accuracy); err != nil {
			return nil, fmt.Errorf("runs: scan: %w", err)
		}
		if err := decodeSummary(&sum, created, params); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runs: list: %w", err)
	}
	return out, nil
}

// Delete removes a run and its predictions.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("runs: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("runs: delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	return nil
}

func (s *Store) predictions(ctx context.Context, id string) ([]evaluation.Prediction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query_id, label, truth FROM predictions WHERE run_id = ? ORDER BY query_id`, id)
	if err != nil {
		return nil, fmt.Errorf("runs: predictions %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	var out []evaluation.Prediction
	for rows.Next() {
		var p evaluation.Prediction
		if err := rows.Scan(&p.QueryID, &p.Label, &p.Truth); err != nil {
			return nil, fmt.Errorf("runs: scan prediction: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runs: predictions %s: %w", id, err)
	}
	return out, nil
}

func decodeSummary(sum *evaluation.RunSummary, created, params string) error {
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return fmt.Errorf("runs: decode created_at: %w", err)
	}
	sum.CreatedAt = t
	if err := json.Unmarshal([]byte(params), &sum.Params); err != nil {
		return fmt.Errorf("runs: decode params: %w", err)
	}
	return nil
}
