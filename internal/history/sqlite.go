package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/etfbalancer/internal/contracts"
)

// SQLiteRecorder persists runs to a local SQLite database
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations
func NewSQLiteRecorder(ctx context.Context, dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL: API 읽기와 스케줄러 쓰기가 동시에 일어남
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			portfolio   TEXT NOT NULL,
			results     TEXT NOT NULL,
			total_value REAL,
			total_cash  REAL,
			order_count INTEGER,
			duration_ms INTEGER,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Record stores a run
func (r *SQLiteRecorder) Record(ctx context.Context, run *contracts.Run) error {
	portfolioJSON, resultsJSON, err := encodeRun(run)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT INTO runs
		(id, source, portfolio, results, total_value, total_cash, order_count, duration_ms, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Source, string(portfolioJSON), string(resultsJSON),
		run.TotalValue, run.TotalCash, run.OrderCount, run.DurationMs,
		run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Get returns the full run or ErrRunNotFound
func (r *SQLiteRecorder) Get(ctx context.Context, id string) (*contracts.Run, error) {
	var (
		run                        contracts.Run
		portfolioJSON, resultsJSON string
		createdAt                  int64
	)

	err := r.db.QueryRowContext(ctx, `SELECT id, source, portfolio, results, total_value, total_cash,
		order_count, duration_ms, created_at FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &run.Source, &portfolioJSON, &resultsJSON,
		&run.TotalValue, &run.TotalCash, &run.OrderCount, &run.DurationMs, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	if err := decodeRun(&run, []byte(portfolioJSON), []byte(resultsJSON)); err != nil {
		return nil, err
	}
	run.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &run, nil
}

// List returns the most recent runs first
func (r *SQLiteRecorder) List(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, source, total_value, total_cash, order_count,
		duration_ms, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	summaries := []contracts.RunSummary{}
	for rows.Next() {
		var (
			s         contracts.RunSummary
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.Source, &s.TotalValue, &s.TotalCash, &s.OrderCount,
			&s.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.CreatedAt = time.UnixMilli(createdAt).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return summaries, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// encodeRun serializes the request and result payloads of a run
func encodeRun(run *contracts.Run) (portfolioJSON, resultsJSON []byte, err error) {
	portfolioJSON, err = json.Marshal(run.Portfolio)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal portfolio: %w", err)
	}
	resultsJSON, err = json.Marshal(run.Results)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal results: %w", err)
	}
	return portfolioJSON, resultsJSON, nil
}

// decodeRun restores the payloads written by encodeRun
func decodeRun(run *contracts.Run, portfolioJSON, resultsJSON []byte) error {
	run.Portfolio = &contracts.Portfolio{}
	if err := json.Unmarshal(portfolioJSON, run.Portfolio); err != nil {
		return fmt.Errorf("unmarshal portfolio: %w", err)
	}
	run.Results = &contracts.Results{}
	if err := json.Unmarshal(resultsJSON, run.Results); err != nil {
		return fmt.Errorf("unmarshal results: %w", err)
	}
	return nil
}
