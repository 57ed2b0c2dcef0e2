package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot sources
const (
	SnapshotSourceDemo     = "demo"
	SnapshotSourcePostgres = "postgres"
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
	Gemini GeminiConfig

	// Audit run behaviour
	Audit AuditConfig

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

// GeminiConfig holds the plan generator API configuration
type GeminiConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	RatePerMinute int
}

// AuditConfig holds orchestrator and scheduler settings
type AuditConfig struct {
	SnapshotSource    string // demo, postgres
	FetchTimeout      time.Duration
	PlanTimeout       time.Duration
	PlanCacheTTL      time.Duration
	SweepSchedule     string // cron expression with seconds
	ScoringConfigPath string // optional YAML override
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
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Gemini: GeminiConfig{
			APIKey:        getEnv("GEMINI_API_KEY", ""),
			Model:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			RatePerMinute: getEnvAsInt("GEMINI_RATE_PER_MINUTE", 30),
		},

		Audit: AuditConfig{
			SnapshotSource:    getEnv("AUDIT_SNAPSHOT_SOURCE", SnapshotSourceDemo),
			FetchTimeout:      getEnvAsDuration("AUDIT_FETCH_TIMEOUT", "10s"),
			PlanTimeout:       getEnvAsDuration("AUDIT_PLAN_TIMEOUT", "30s"),
			PlanCacheTTL:      getEnvAsDuration("AUDIT_PLAN_CACHE_TTL", "1h"),
			SweepSchedule:     getEnv("AUDIT_SWEEP_SCHEDULE", "0 0 7 * * *"),
			ScoringConfigPath: getEnv("SCORING_CONFIG_PATH", ""),
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
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Audit.SnapshotSource {
	case SnapshotSourceDemo:
	case SnapshotSourcePostgres:
		// Postgres source cannot work without a DSN
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when AUDIT_SNAPSHOT_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("AUDIT_SNAPSHOT_SOURCE must be one of: demo, postgres")
	}

	if c.Audit.FetchTimeout <= 0 {
		return fmt.Errorf("AUDIT_FETCH_TIMEOUT must be positive")
	}
	if c.Audit.PlanTimeout <= 0 {
		return fmt.Errorf("AUDIT_PLAN_TIMEOUT must be positive")
	}

	return nil
}

// HasGemini reports whether a plan generator API key is configured
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
