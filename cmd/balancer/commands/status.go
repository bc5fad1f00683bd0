package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfbalancer/pkg/database"
	"github.com/wonny/etfbalancer/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "설정 및 연결 상태 점검",
	Long: `현재 설정과 외부 의존성(PostgreSQL, Redis) 연결 상태를 표시합니다.

Example:
  go run ./cmd/balancer status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, _, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	PrintHeader(out, "Configuration")
	PrintKeyValue(out, "Env", cfg.Env, 14)
	PrintKeyValue(out, "Port", cfg.Port, 14)
	PrintKeyValue(out, "Log level", cfg.LogLevel, 14)
	quoteSource := cfg.Quotes.BaseURL
	if cfg.Quotes.Provider == "page" {
		quoteSource = cfg.Quotes.PageURL
	}
	PrintKeyValue(out, "Quotes", fmt.Sprintf("%s %s (%.1f req/s)", cfg.Quotes.Provider, quoteSource, cfg.Quotes.RequestsPerSecond), 14)
	PrintKeyValue(out, "Rate limit", fmt.Sprintf("%d/min per client", cfg.RateLimitPerMinute), 14)
	PrintKeyValue(out, "Result cache", cfg.CacheTTL.String(), 14)

	PrintHeader(out, "Dependencies")

	// History store
	switch {
	case !cfg.History.Enabled:
		PrintWarning(out, "History: disabled")
	case cfg.UsePostgres():
		db, err := database.New(ctx, cfg)
		if err != nil {
			PrintError(out, fmt.Sprintf("History (postgres): %v", err))
			break
		}
		health, err := db.HealthCheck(ctx)
		db.Close()
		if err != nil {
			PrintError(out, fmt.Sprintf("History (postgres): %v", err))
			break
		}
		PrintSuccess(out, fmt.Sprintf("History (postgres): ok in %s, %d/%d conns",
			health.ResponseTime, health.AcquiredConns, health.MaxConns))
	case cfg.History.SQLitePath != "":
		PrintSuccess(out, fmt.Sprintf("History (sqlite): %s", cfg.History.SQLitePath))
	default:
		PrintWarning(out, "History: no store configured")
	}

	// Redis
	if !cfg.Redis.Enabled {
		PrintWarning(out, "Redis: disabled (no result cache, no rate limit)")
		return nil
	}
	redisClient, err := redis.New(ctx, cfg)
	if err != nil {
		PrintError(out, fmt.Sprintf("Redis: %v", err))
		return nil
	}
	defer redisClient.Close()

	rtt, err := redisClient.Ping(ctx)
	if err != nil {
		PrintError(out, fmt.Sprintf("Redis: %v", err))
		return nil
	}
	PrintSuccess(out, fmt.Sprintf("Redis: %s db %d, ping %s", redisClient.Addr(), cfg.Redis.DB, rtt))

	return nil
}
