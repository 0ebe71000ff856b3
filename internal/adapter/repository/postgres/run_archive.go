package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/lib/pq"
)

const (
	runsTableName    = "analysis_runs"
	recordsTableName = "analysis_run_records"
	maxListLimit     = 500
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id          UUID PRIMARY KEY,
	source          TEXT NOT NULL,
	loaded_at       TIMESTAMPTZ NOT NULL,
	total           INTEGER NOT NULL,
	priority_counts JSONB NOT NULL DEFAULT '{}',
	category_counts JSONB NOT NULL DEFAULT '{}',
	warnings        TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS analysis_runs_loaded_at_idx ON analysis_runs (loaded_at DESC);
CREATE TABLE IF NOT EXISTS analysis_run_records (
	run_id      UUID NOT NULL REFERENCES analysis_runs (run_id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	level       TEXT NOT NULL DEFAULT '',
	service     TEXT NOT NULL DEFAULT '',
	route       TEXT NOT NULL DEFAULT '',
	status_code INTEGER,
	category    TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
`

// RunArchive implements domain.RunArchive on PostgreSQL.
type RunArchive struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunArchive creates a new PostgreSQL run archive.
func NewRunArchive(db *sql.DB, logger *slog.Logger) *RunArchive {
	return &RunArchive{db: db, logger: logger.With("component", "run_archive")}
}

// EnsureSchema creates the archive tables if they do not exist.
func (r *RunArchive) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}
	return nil
}

// RecordRun stores the run summary and copies the dataset's records in one
// transaction. Recording the same run ID twice is a no-op.
func (r *RunArchive) RecordRun(ctx context.Context, run domain.AnalysisRun, ds domain.Dataset) error {
	priorityCounts, err := json.Marshal(nonNilCounts(run.PriorityCounts))
	if err != nil {
		return fmt.Errorf("failed to marshal priority counts: %w", err)
	}
	categoryCounts, err := json.Marshal(nonNilCounts(run.CategoryCounts))
	if err != nil {
		return fmt.Errorf("failed to marshal category counts: %w", err)
	}
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	res, err := txn.ExecContext(ctx, `
		INSERT INTO `+runsTableName+` (run_id, source, loaded_at, total, priority_counts, category_counts, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO NOTHING`,
		run.ID, run.Source, run.LoadedAt, run.Total, priorityCounts, categoryCounts, pq.Array(warnings))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.logger.Info("run already archived", "run_id", run.ID)
		return txn.Commit()
	}

	if len(ds.Logs) > 0 {
		stmt, err := txn.Prepare(pq.CopyIn(recordsTableName,
			"run_id", "position", "message", "level", "service", "route", "status_code", "category", "priority", "reason"))
		if err != nil {
			return fmt.Errorf("failed to prepare record copy: %w", err)
		}
		for i, log := range ds.Logs {
			result := ds.ResultAt(i)
			status := sql.NullInt64{}
			if log.StatusCode != nil {
				status = sql.NullInt64{Int64: int64(*log.StatusCode), Valid: true}
			}
			_, err = stmt.ExecContext(ctx, run.ID, i+1, log.Message, log.Level, log.Service, log.Route, status,
				result.Category, result.Priority, result.Reason)
			if err != nil {
				// Close the statement to avoid connection issues
				_ = stmt.Close()
				return fmt.Errorf("failed to copy record %d: %w", i, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to flush record copy: %w", err)
		}
		if err := stmt.Close(); err != nil {
			return err
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	r.logger.Debug("run archived", "run_id", run.ID, "records", len(ds.Logs))
	return nil
}

// ListRuns returns the most recent runs first. limit is clamped to [1, 500].
func (r *RunArchive) ListRuns(ctx context.Context, limit int) ([]domain.AnalysisRun, error) {
	limit = max(1, min(limit, maxListLimit))

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, source, loaded_at, total, priority_counts, category_counts, warnings
		FROM `+runsTableName+`
		ORDER BY loaded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.AnalysisRun{}
	for rows.Next() {
		var (
			run                            domain.AnalysisRun
			priorityCounts, categoryCounts []byte
		)
		if err := rows.Scan(&run.ID, &run.Source, &run.LoadedAt, &run.Total, &priorityCounts, &categoryCounts, pq.Array(&run.Warnings)); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal(priorityCounts, &run.PriorityCounts); err != nil {
			return nil, fmt.Errorf("failed to decode priority counts of run %s: %w", run.ID, err)
		}
		if err := json.Unmarshal(categoryCounts, &run.CategoryCounts); err != nil {
			return nil, fmt.Errorf("failed to decode category counts of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
