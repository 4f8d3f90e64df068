package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Tushare   TushareConfig
	Anthropic AnthropicConfig

	// Domain
	Valuation ValuationConfig
	Alerts    AlertConfig
	Screener  ScreenerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// TushareConfig holds Tushare Pro API configuration
type TushareConfig struct {
	Token      string
	BaseURL    string
	RatePerMin int // 분당 호출 제한
	Workers    int
}

// AnthropicConfig holds the AI chat model configuration
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// ValuationConfig controls snapshot computation
type ValuationConfig struct {
	LookbackYears int
	Workers       int
}

// AlertConfig controls the alert checker
type AlertConfig struct {
	Cooldown time.Duration
}

// ScreenerConfig controls screener defaults
type ScreenerConfig struct {
	PresetsFile  string // optional override of the embedded presets
	DefaultLimit int
}

// Enabled reports whether an API key is configured
func (a AnthropicConfig) Enabled() bool {
	return a.APIKey != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External APIs
		Tushare: TushareConfig{
			Token:      getEnv("TUSHARE_TOKEN", ""),
			BaseURL:    getEnv("TUSHARE_BASE_URL", "http://api.tushare.pro"),
			RatePerMin: getEnvAsInt("TUSHARE_RATE_PER_MIN", 200),
			Workers:    getEnvAsInt("TUSHARE_WORKERS", 4),
		},

		Anthropic: AnthropicConfig{
			APIKey:    getEnv("ANTHROPIC_API_KEY", ""),
			Model:     getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
			MaxTokens: getEnvAsInt("ANTHROPIC_MAX_TOKENS", 1024),
		},

		// Domain
		Valuation: ValuationConfig{
			LookbackYears: getEnvAsInt("VALUATION_LOOKBACK_YEARS", 5),
			Workers:       getEnvAsInt("VALUATION_WORKERS", 8),
		},

		Alerts: AlertConfig{
			Cooldown: getEnvAsDuration("ALERT_COOLDOWN", "24h"),
		},

		Screener: ScreenerConfig{
			PresetsFile:  getEnv("SCREENER_PRESETS_FILE", ""),
			DefaultLimit: getEnvAsInt("SCREENER_DEFAULT_LIMIT", 100),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Valuation.LookbackYears < 1 {
		return fmt.Errorf("VALUATION_LOOKBACK_YEARS must be >= 1")
	}

	if c.Tushare.RatePerMin < 1 {
		return fmt.Errorf("TUSHARE_RATE_PER_MIN must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

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
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
