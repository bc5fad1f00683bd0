package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/pkg/config"
	"github.com/wonny/etfbalancer/pkg/database"
	"github.com/wonny/etfbalancer/pkg/logger"
)

// ErrRunNotFound is returned by Get for an unknown run id
var ErrRunNotFound = errors.New("run not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Sources of a recorded run
const (
	SourceAPI       = "api"
	SourceCLI       = "cli"
	SourceScheduler = "scheduler"
)

// NewRun builds a Run record for a finished rebalance
func NewRun(source string, p *contracts.Portfolio, results *contracts.Results, elapsed time.Duration) *contracts.Run {
	return &contracts.Run{
		ID:         uuid.NewString(),
		Source:     source,
		Portfolio:  p,
		Results:    results,
		TotalValue: p.TotalValue(),
		TotalCash:  results.TotalCash,
		OrderCount: len(results.Orders),
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

// clampLimit keeps list limits within [1, MaxListLimit]
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Open selects the run store from configuration:
// Postgres when DATABASE_URL is set, otherwise SQLite at SQLITE_PATH, otherwise noop.
// ⭐ SSOT: 히스토리 저장소 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.RunRecorder, error) {
	if !cfg.History.Enabled {
		log.Info("Run history disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.UsePostgres() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres history: %w", err)
		}
		rec, err := NewPostgresRecorder(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Run history: postgres")
		return rec, nil
	}

	if cfg.History.SQLitePath != "" {
		if dir := filepath.Dir(cfg.History.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history dir: %w", err)
			}
		}
		rec, err := NewSQLiteRecorder(ctx, cfg.History.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.History.SQLitePath).Info("Run history: sqlite")
		return rec, nil
	}

	return NewNoopRecorder(), nil
}
