package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ecttool/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Logging  LoggingConfig
	Analysis AnalysisConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	MetricsPort    string
	RequestTimeout time.Duration
}

// DataConfig holds the cohort and category metadata sources
type DataConfig struct {
	CohortFile  string
	CohortSheet string
	CatalogFile string // empty selects the built-in catalog
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// AnalysisConfig holds survival analysis settings
type AnalysisConfig struct {
	ConfidenceLevel float64
	OverviewWorkers int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Data:     *loadDataConfig(),
		Logging:  LoggingConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
		Analysis: *loadAnalysisConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		MetricsPort:    getEnvOrDefault("METRICS_PORT", "9090"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 15*time.Second),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		CohortFile:  getEnvOrDefault("COHORT_FILE", ""),
		CohortSheet: getEnvOrDefault("COHORT_SHEET", "Sheet1"),
		CatalogFile: getEnvOrDefault("CATALOG_FILE", ""),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		ConfidenceLevel: getEnvFloatOrDefault("CONFIDENCE_LEVEL", 0.95),
		OverviewWorkers: getEnvIntOrDefault("OVERVIEW_WORKERS", 4),
	}
}

func validateConfig(config *Config) error {
	if config.Data.CohortFile == "" {
		return errors.ConfigInvalid("COHORT_FILE is required")
	}
	if config.Server.RequestTimeout <= 0 {
		return errors.ConfigInvalid("REQUEST_TIMEOUT must be positive")
	}
	if c := config.Analysis.ConfidenceLevel; c <= 0 || c >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("CONFIDENCE_LEVEL must be in (0,1), got %v", c))
	}
	if config.Analysis.OverviewWorkers < 1 {
		return errors.ConfigInvalid("OVERVIEW_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
