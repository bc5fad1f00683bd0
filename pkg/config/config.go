package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the balancer
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	Database DatabaseConfig
	History  HistoryConfig

	// Redis
	Redis RedisConfig

	// Quotes
	Quotes QuotesConfig

	// API
	CacheTTL           time.Duration
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string // stderr | stdout
}

// DatabaseConfig holds PostgreSQL configuration.
// An empty URL disables the Postgres history store.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// HistoryConfig selects where rebalance runs are recorded
type HistoryConfig struct {
	SQLitePath string // used when Database.URL is empty
	Enabled    bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// QuotesConfig holds the market quote endpoint configuration
type QuotesConfig struct {
	Provider          string // yahoo (JSON API) or page (HTML quote pages)
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration

	// Page provider: PageURL contains one %s for the symbol
	PageURL       string
	PriceSelector string
	YieldSelector string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		History: HistoryConfig{
			SQLitePath: getEnv("SQLITE_PATH", "data/balancer.db"),
			Enabled:    getEnvAsBool("HISTORY_ENABLED", true),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Quotes: QuotesConfig{
			Provider:          getEnv("QUOTES_PROVIDER", "yahoo"),
			BaseURL:           getEnv("QUOTES_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerSecond: getEnvAsFloat("QUOTES_REQUESTS_PER_SECOND", 2),
			Timeout:           getEnvAsDuration("QUOTES_TIMEOUT", "15s"),
			PageURL:           getEnv("QUOTES_PAGE_URL", ""),
			PriceSelector:     getEnv("QUOTES_PRICE_SELECTOR", ""),
			YieldSelector:     getEnv("QUOTES_YIELD_SELECTOR", ""),
		},

		CacheTTL:           getEnvAsDuration("CACHE_TTL", "10m"),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration values
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}

	if c.Quotes.RequestsPerSecond <= 0 {
		return fmt.Errorf("QUOTES_REQUESTS_PER_SECOND must be positive")
	}

	switch c.Quotes.Provider {
	case "yahoo":
	case "page":
		if strings.Count(c.Quotes.PageURL, "%s") != 1 || c.Quotes.PriceSelector == "" {
			return fmt.Errorf("QUOTES_PROVIDER=page needs QUOTES_PAGE_URL with one %%s and QUOTES_PRICE_SELECTOR")
		}
	default:
		return fmt.Errorf("QUOTES_PROVIDER must be yahoo or page, got %q", c.Quotes.Provider)
	}

	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}

	return nil
}

// UsePostgres reports whether history goes to PostgreSQL
func (c *Config) UsePostgres() bool {
	return c.Database.URL != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from the working directory, then next to the executable
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
