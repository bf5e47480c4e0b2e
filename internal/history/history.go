// Package history persists a summary of each ingestion run when a database
// is configured. The pipeline never depends on it; a nil *Store disables
// recording entirely.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run is one recorded ingestion run.
type Run struct {
	RunID           string        `json:"runId"`
	FileName        string        `json:"fileName"`
	RowCount        int           `json:"rowCount"`
	ValidCount      int           `json:"validCount"`
	DiagnosticCount int           `json:"diagnosticCount"`
	Duration        time.Duration `json:"duration"`
	LoadedAt        time.Time     `json:"loadedAt"`
}

// Store records runs in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS ingestion_runs (
	run_id           UUID PRIMARY KEY,
	file_name        TEXT NOT NULL,
	row_count        INTEGER NOT NULL,
	valid_count      INTEGER NOT NULL,
	diagnostic_count INTEGER NOT NULL,
	duration_ms      BIGINT NOT NULL,
	loaded_at        TIMESTAMPTZ NOT NULL
)`

// CreateSchema ensures the runs table exists.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create ingestion_runs table: %w", err)
	}
	return nil
}

// RecordRun inserts one run summary.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	var id pgtype.UUID
	if err := id.Scan(run.RunID); err != nil {
		return fmt.Errorf("record run: bad run id %q: %w", run.RunID, err)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingestion_runs
			(run_id, file_name, row_count, valid_count, diagnostic_count, duration_ms, loaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, run.FileName, run.RowCount, run.ValidCount, run.DiagnosticCount,
		run.Duration.Milliseconds(), run.LoadedAt,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT run_id, file_name, row_count, valid_count, diagnostic_count, duration_ms, loaded_at
		FROM ingestion_runs
		ORDER BY loaded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			id         pgtype.UUID
			run        Run
			durationMS int64
			loadedAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &run.FileName, &run.RowCount, &run.ValidCount,
			&run.DiagnosticCount, &durationMS, &loadedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.RunID = uuidString(id)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.LoadedAt = loadedAt.Time
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

func uuidString(id pgtype.UUID) string {
	v, err := id.Value()
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
