package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/internal/portfolio"
	"github.com/wonny/etfbalancer/internal/quotes"
	"github.com/wonny/etfbalancer/pkg/logger"
)

// RebalanceJob periodically rebalances a portfolio file
type RebalanceJob struct {
	path       string
	outputPath string
	schedule   string
	balancer   contracts.Balancer
	quotes     contracts.QuoteSource // nil: use prices in the file
	recorder   contracts.RunRecorder
	logger     *logger.Logger

	mu      sync.Mutex
	lastRun *contracts.Run
}

// RebalanceJobConfig configures a RebalanceJob
type RebalanceJobConfig struct {
	Path       string // portfolio file (.json/.yaml/.yml)
	OutputPath string // optional: results are written here after each run
	Schedule   string // cron expression with seconds
}

// NewRebalanceJob creates a new rebalance job
func NewRebalanceJob(
	cfg RebalanceJobConfig,
	balancer contracts.Balancer,
	quoteSource contracts.QuoteSource,
	recorder contracts.RunRecorder,
	log *logger.Logger,
) *RebalanceJob {
	return &RebalanceJob{
		path:       cfg.Path,
		outputPath: cfg.OutputPath,
		schedule:   cfg.Schedule,
		balancer:   balancer,
		quotes:     quoteSource,
		recorder:   recorder,
		logger:     log.Component("job"),
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	base := filepath.Base(j.path)
	return "rebalance:" + strings.TrimSuffix(base, filepath.Ext(base))
}

// Schedule returns the cron schedule
func (j *RebalanceJob) Schedule() string {
	return j.schedule
}

// LastRun returns the most recent successful run (nil before the first one)
func (j *RebalanceJob) LastRun() *contracts.Run {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun
}

// Run loads the portfolio, refreshes quotes, rebalances and records the run
func (j *RebalanceJob) Run(ctx context.Context) error {
	// 1. Load
	p, err := portfolio.LoadFile(j.path)
	if err != nil {
		return err
	}

	// 2. Refresh market snapshot
	if j.quotes != nil {
		n, err := quotes.Refresh(ctx, j.quotes, p)
		if err != nil {
			return err
		}
		j.logger.WithField("symbols", n).Debug("Quotes refreshed")
	}

	// 3. Validate
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid portfolio %s: %w", j.path, err)
	}

	// 4. Rebalance
	start := time.Now()
	results := j.balancer.Balance(p)
	run := history.NewRun(history.SourceScheduler, p, results, time.Since(start))

	// 5. Record
	if err := j.recorder.Record(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	// 6. Write results
	if j.outputPath != "" {
		if err := writeResults(j.outputPath, results); err != nil {
			return err
		}
	}

	j.mu.Lock()
	j.lastRun = run
	j.mu.Unlock()

	j.logger.WithRun(run.ID).WithFields(map[string]interface{}{
		"orders":     run.OrderCount,
		"total_cash": run.TotalCash,
	}).Info("Scheduled rebalance completed")

	return nil
}

// writeResults replaces path atomically, encoded by its extension
func writeResults(path string, results *contracts.Results) error {
	format, err := portfolio.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := portfolio.Marshal(results, format)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
