package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/etfbalancer/internal/contracts"
	"github.com/wonny/etfbalancer/internal/quotes"
	"github.com/wonny/etfbalancer/pkg/config"
	"github.com/wonny/etfbalancer/pkg/httputil"
	"github.com/wonny/etfbalancer/pkg/logger"
	"github.com/wonny/etfbalancer/pkg/redis"
)

var (
	// Global flags
	logLevel string
	verbose  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "balancer",
	Short: "Tax-aware multi-account portfolio rebalancer",
	Long: `ETF Balancer CLI

Moves a multi-account portfolio toward its target allocation in whole shares,
selling from tax-sheltered accounts first and placing high-yield holdings in
tax-sheltered accounts.

Usage:
  go run ./cmd/balancer [command]

Examples:
  go run ./cmd/balancer balance portfolio.yaml
  go run ./cmd/balancer validate portfolio.json
  go run ./cmd/balancer api --port 8000
  go run ./cmd/balancer schedule --file portfolio.yaml --cron "0 30 16 * * MON-FRI"`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads configuration and builds the logger.
// One-shot commands stay quiet unless --verbose or --log-level is given.
func loadConfig(quiet bool) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	switch {
	case logLevel != "":
		cfg.LogLevel = logLevel
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "warn"
	}

	return cfg, logger.New(cfg), nil
}

// newQuoteSource builds the configured quote provider. The Yahoo client is cached in Redis when enabled.
// The returned Redis client must be closed by the caller.
func newQuoteSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.QuoteSource, *redis.Client, error) {
	redisClient, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpClient := httputil.New(cfg.Quotes.Timeout, log).WithRateLimit(cfg.Quotes.RequestsPerSecond)

	if cfg.Quotes.Provider == "page" {
		q := cfg.Quotes
		return quotes.NewPageScraper(httpClient, q.PageURL, q.PriceSelector, q.YieldSelector, log), redisClient, nil
	}

	cache := redis.NewCache(redisClient, "etfbalancer")
	return quotes.NewYahooClient(httpClient, cfg.Quotes.BaseURL, cache, log), redisClient, nil
}
