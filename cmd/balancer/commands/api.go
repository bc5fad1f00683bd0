package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/etfbalancer/internal/api"
	"github.com/wonny/etfbalancer/internal/api/handlers"
	"github.com/wonny/etfbalancer/internal/balancer"
	"github.com/wonny/etfbalancer/internal/history"
	"github.com/wonny/etfbalancer/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /                 - Greeting
  GET  /health           - Health check
  POST /balance          - 리밸런싱 계산
  GET  /api/runs         - 최근 실행 기록
  GET  /api/runs/{id}    - 실행 기록 상세

Example:
  go run ./cmd/balancer api
  go run ./cmd/balancer api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, log, err := loadConfig(false)
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Redis (cache + rate limit; disabled unless REDIS_ENABLED)
	redisClient, err := redis.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 3. Run history
	store, err := history.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	recorder := history.NewFeed(store)
	defer recorder.Close()

	// 4. Handlers
	balanceHandler := handlers.NewBalanceHandler(
		balancer.New(log),
		recorder,
		redis.NewCache(redisClient, "etfbalancer"),
		cfg.CacheTTL,
		log,
	)
	runsHandler := handlers.NewRunsHandler(recorder, log)
	streamHandler := handlers.NewStreamHandler(recorder, log)

	// 5. Router
	router := api.NewRouter(api.RouterDeps{
		Balance:            balanceHandler,
		Runs:               runsHandler,
		Stream:             streamHandler,
		Limiter:            redis.NewRateLimiter(redisClient, "etfbalancer"),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             log,
	})

	// 6. Serve until interrupted
	server := api.New(cfg, log, router)
	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", cfg.Port)

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
