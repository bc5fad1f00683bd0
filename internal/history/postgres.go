package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/pkg/database"
)

// PostgresRecorder persists runs to PostgreSQL (JSONB payloads)
// ⭐ SSOT: 실행 기록 저장/조회는 여기서만 (Postgres)
type PostgresRecorder struct {
	db *database.DB
}

// NewPostgresRecorder takes ownership of db and creates the schema if needed
func NewPostgresRecorder(ctx context.Context, db *database.DB) (*PostgresRecorder, error) {
	r := &PostgresRecorder{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	return r.db.Migrate(ctx,
		`CREATE SCHEMA IF NOT EXISTS balancer`,
		`CREATE TABLE IF NOT EXISTS balancer.runs (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			portfolio   JSONB NOT NULL,
			results     JSONB NOT NULL,
			total_value DOUBLE PRECISION,
			total_cash  DOUBLE PRECISION,
			order_count INTEGER,
			duration_ms BIGINT,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON balancer.runs(created_at DESC)`,
	)
}

// Record stores a run
func (r *PostgresRecorder) Record(ctx context.Context, run *contracts.Run) error {
	portfolioJSON, resultsJSON, err := encodeRun(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO balancer.runs (
			id, source, portfolio, results, total_value, total_cash, order_count, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Pool.Exec(ctx, query,
		run.ID, run.Source, portfolioJSON, resultsJSON,
		run.TotalValue, run.TotalCash, run.OrderCount, run.DurationMs, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get returns the full run or ErrRunNotFound
func (r *PostgresRecorder) Get(ctx context.Context, id string) (*contracts.Run, error) {
	query := `
		SELECT id, source, portfolio, results, total_value, total_cash, order_count, duration_ms, created_at
		FROM balancer.runs
		WHERE id = $1
	`

	var (
		run                        contracts.Run
		portfolioJSON, resultsJSON []byte
	)
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Source, &portfolioJSON, &resultsJSON,
		&run.TotalValue, &run.TotalCash, &run.OrderCount, &run.DurationMs, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	if err := decodeRun(&run, portfolioJSON, resultsJSON); err != nil {
		return nil, err
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}

// List returns the most recent runs first
func (r *PostgresRecorder) List(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	query := `
		SELECT id, source, total_value, total_cash, order_count, duration_ms, created_at
		FROM balancer.runs
		ORDER BY created_at DESC, id
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := []contracts.RunSummary{}
	for rows.Next() {
		var s contracts.RunSummary
		if err := rows.Scan(&s.ID, &s.Source, &s.TotalValue, &s.TotalCash, &s.OrderCount,
			&s.DurationMs, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return summaries, nil
}

// Close releases the connection pool
func (r *PostgresRecorder) Close() error {
	r.db.Close()
	return nil
}
