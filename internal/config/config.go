package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string
	PublicURL   string // externally reachable base URL, advertised in the API docs

	Forecast  ForecastConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ForecastConfig holds the balance projector tunables
type ForecastConfig struct {
	TrailingMonths   int
	IncomeVariation  decimal.Decimal
	ExpenseVariation decimal.Decimal
	Seed             uint64 // 0 seeds from the clock
}

// CacheConfig controls the aggregate caches
type CacheConfig struct {
	Enabled bool
}

// RateLimitConfig holds per-user request limits
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		PublicURL:     strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
	}

	var err error
	if cfg.Forecast.TrailingMonths, err = getEnvInt("FORECAST_TRAILING_MONTHS", 3); err != nil {
		return nil, err
	}
	if cfg.Forecast.IncomeVariation, err = getEnvDecimal("FORECAST_INCOME_VARIATION", "0.10"); err != nil {
		return nil, err
	}
	if cfg.Forecast.ExpenseVariation, err = getEnvDecimal("FORECAST_EXPENSE_VARIATION", "0.15"); err != nil {
		return nil, err
	}
	if raw := getEnv("FORECAST_SEED", ""); raw != "" {
		if cfg.Forecast.Seed, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("FORECAST_SEED must be an unsigned integer: %w", err)
		}
	}
	if cfg.Cache.Enabled, err = getEnvBool("CACHE_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RequestsPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getEnvInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("PUBLIC_URL must be an absolute http or https URL")
		}
	}
	if c.Forecast.TrailingMonths < 1 {
		return fmt.Errorf("FORECAST_TRAILING_MONTHS must be at least 1")
	}
	if c.Forecast.IncomeVariation.IsNegative() || c.Forecast.IncomeVariation.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("FORECAST_INCOME_VARIATION must be between 0 and 1")
	}
	if c.Forecast.ExpenseVariation.IsNegative() || c.Forecast.ExpenseVariation.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("FORECAST_EXPENSE_VARIATION must be between 0 and 1")
	}
	if c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return v, nil
}
