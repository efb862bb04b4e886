package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default external endpoints. All of them can be overridden via environment
// variables, mainly so tests and staging can point at fakes.
const (
	DefaultMeteoraAPIURL     = "https://dlmm-api.meteora.ag"
	DefaultDexScreenerAPIURL = "https://api.dexscreener.com/latest/dex/pairs/solana"
	DefaultJupiterStrictURL  = "https://token.jup.ag/strict"
	DefaultJupiterAllURL     = "https://token.jup.ag/all"
	DefaultJupiterPriceURL   = "https://price.jup.ag/v4/price"
)

// Config holds all configuration for lpscout
type Config struct {
	// External API configuration
	MeteoraAPIURL     string
	DexScreenerAPIURL string
	JupiterStrictURL  string
	JupiterAllURL     string
	JupiterPriceURL   string

	// RPC configuration
	RPCURL string

	// Rate limits (requests per second). When a cap is reached callers are
	// delayed, never dropped.
	RPCMaxTPS        int
	MeteoraAPIMaxTPS int

	// DEX aggregator batching limits
	MaxURLLength         int
	MaxAddressesPerBatch int

	// Opportunity filtering
	MinLiquidityUSD float64

	// Snapshot refresh cadence
	RefreshInterval time.Duration

	// Database configuration
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	// Redis configuration
	RedisURL string

	// Worker configuration
	MinWorkers int
	MaxWorkers int

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsPort string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		MeteoraAPIURL:     getEnv("METEORA_API_URL", DefaultMeteoraAPIURL),
		DexScreenerAPIURL: getEnv("DEX_SCREENER_API_URL", DefaultDexScreenerAPIURL),
		JupiterStrictURL:  getEnv("JUPITER_STRICT_LIST_URL", DefaultJupiterStrictURL),
		JupiterAllURL:     getEnv("JUPITER_ALL_LIST_URL", DefaultJupiterAllURL),
		JupiterPriceURL:   getEnv("JUPITER_PRICE_URL", DefaultJupiterPriceURL),
		RPCURL:            getEnv("RPC_URL", ""),
		DBHost:            getEnv("DB_HOST", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", ""),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBSSLMode:         getEnv("DB_SSL_MODE", "disable"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MetricsPort:       getEnv("METRICS_PORT", "9100"),
	}

	var err error
	cfg.RPCMaxTPS, err = parseIntEnv("RPC_MAX_TPS", 10)
	if err != nil {
		return cfg, fmt.Errorf("invalid RPC_MAX_TPS: %w", err)
	}

	cfg.MeteoraAPIMaxTPS, err = parseIntEnv("METEORA_API_MAX_TPS", 100)
	if err != nil {
		return cfg, fmt.Errorf("invalid METEORA_API_MAX_TPS: %w", err)
	}

	cfg.MaxURLLength, err = parseIntEnv("MAX_URL_LENGTH", 1000)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_URL_LENGTH: %w", err)
	}

	cfg.MaxAddressesPerBatch, err = parseIntEnv("MAX_ADDRESSES_PER_BATCH", 30)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_ADDRESSES_PER_BATCH: %w", err)
	}

	cfg.MinLiquidityUSD, err = parseFloatEnv("MIN_LIQUIDITY_USD", 1000)
	if err != nil {
		return cfg, fmt.Errorf("invalid MIN_LIQUIDITY_USD: %w", err)
	}

	refreshMinutes, err := parseIntEnv("REFRESH_MINUTES", 15)
	if err != nil {
		return cfg, fmt.Errorf("invalid REFRESH_MINUTES: %w", err)
	}
	cfg.RefreshInterval = time.Duration(refreshMinutes) * time.Minute

	cfg.MinWorkers, err = parseIntEnv("MIN_WORKERS", 2)
	if err != nil {
		return cfg, fmt.Errorf("invalid MIN_WORKERS: %w", err)
	}

	cfg.MaxWorkers, err = parseIntEnv("MAX_WORKERS", 10)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_WORKERS: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}

	if c.RPCMaxTPS < 1 {
		return fmt.Errorf("RPC_MAX_TPS must be at least 1")
	}

	if c.MeteoraAPIMaxTPS < 1 {
		return fmt.Errorf("METEORA_API_MAX_TPS must be at least 1")
	}

	if c.MaxAddressesPerBatch < 1 {
		return fmt.Errorf("MAX_ADDRESSES_PER_BATCH must be at least 1")
	}

	if c.MaxURLLength < len(c.DexScreenerAPIURL)+45 {
		return fmt.Errorf("MAX_URL_LENGTH too small to fit a single address")
	}

	if c.MinWorkers < 1 {
		return fmt.Errorf("MIN_WORKERS must be at least 1")
	}

	if c.MaxWorkers < c.MinWorkers {
		return fmt.Errorf("MAX_WORKERS must be greater than or equal to MIN_WORKERS")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// DSN builds the Postgres connection string for the leaderboard store
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an integer environment variable with a default value
func parseIntEnv(key string, defaultValue int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(str)
}

// parseFloatEnv parses a float environment variable with a default value
func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(str, 64)
}
