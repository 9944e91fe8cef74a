package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the full engine configuration, read from the environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Detection DetectionConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	GracefulTimeout time.Duration
}

// DatabaseConfig is optional: an empty URL disables ledger ingestion.
type DatabaseConfig struct {
	URL         string
	LedgerTable string
	InitSchema  bool
	LoadLimit   int
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// DetectionConfig carries the cycle enumeration bounds. Zero means unbounded.
type DetectionConfig struct {
	MaxCycleLength int
	MaxCycles      int
}

type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	Filename   string
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Compress   bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("[Config] No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "5339"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS"),
			MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 32<<20),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", "30s"),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", "120s"),
			GracefulTimeout: getEnvAsDuration("SERVER_GRACEFUL_TIMEOUT", "15s"),
		},
		Database: DatabaseConfig{
			URL:         os.Getenv("DATABASE_URL"),
			LedgerTable: getEnv("LEDGER_TABLE", "ledger_transactions"),
			InitSchema:  getEnvAsBool("DB_INIT_SCHEMA", true),
			LoadLimit:   getEnvAsInt("LEDGER_LOAD_LIMIT", 0),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsInt("RATE_LIMIT_PER_MIN", 30),
			Burst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Detection: DetectionConfig{
			MaxCycleLength: getEnvAsInt("CYCLE_MAX_LENGTH", 5),
			MaxCycles:      getEnvAsInt("CYCLE_MAX_COUNT", 0),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", "logs/ringwatch.log"),
			MaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvAsInt("LOG_MAX_AGE", 30),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			Compress:   getEnvAsBool("LOG_COMPRESS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise fail at runtime.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive (per minute %d, burst %d)",
			c.RateLimit.PerMinute, c.RateLimit.Burst)
	}
	if c.Detection.MaxCycleLength < 0 {
		return fmt.Errorf("cycle max length cannot be negative")
	}
	if c.Detection.MaxCycleLength > 0 && c.Detection.MaxCycleLength < 5 {
		return fmt.Errorf("cycle max length %d would hide rings of length up to 5", c.Detection.MaxCycleLength)
	}
	if c.Detection.MaxCycles < 0 {
		return fmt.Errorf("cycle max count cannot be negative")
	}
	if c.Database.LoadLimit < 0 {
		return fmt.Errorf("ledger load limit cannot be negative")
	}
	return nil
}

// Helper functions to parse environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.Warnf("[Config] %s=%q is not an integer, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		logrus.Warnf("[Config] %s=%q is not an integer, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultValue)
	return d
}

// getEnvAsList splits a comma separated value, dropping empty entries.
// "*" and unset both yield nil, meaning any origin.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "*" {
			return nil
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
