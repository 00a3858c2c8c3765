package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Reports
	ProjectionSpan  int
	ReportCacheSize int
	ReportCacheTTL  time.Duration
}

func Load() *Config {
	return &Config{
		DBPath: getEnv("BUDGENET_DB_PATH", "./data/budgenet.db"),

		LogLevel:  getEnv("BUDGENET_LOG_LEVEL", "info"),
		LogFormat: getEnv("BUDGENET_LOG_FORMAT", "text"),

		ProjectionSpan:  getEnvInt("BUDGENET_PROJECTION_SPAN", 6),
		ReportCacheSize: getEnvInt("BUDGENET_REPORT_CACHE_SIZE", 24),
		ReportCacheTTL:  getEnvDuration("BUDGENET_REPORT_CACHE_TTL", 10*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			errors = append(errors, fmt.Sprintf("database directory '%s' is not a directory", dir))
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !oneOf(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	validFormats := []string{"text", "json"}
	if !oneOf(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if c.ProjectionSpan < 1 {
		errors = append(errors, fmt.Sprintf("invalid projection span %d: must be at least 1", c.ProjectionSpan))
	} else if c.ProjectionSpan > 24 {
		errors = append(errors, fmt.Sprintf("invalid projection span %d: must be at most 24", c.ProjectionSpan))
	}

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}

	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func oneOf(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
