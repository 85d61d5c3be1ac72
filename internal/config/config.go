package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	Backend BackendConfig `json:"backend"`
	Batch   BatchConfig   `json:"batch"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
}

type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Environment  string        `json:"environment"`
}

type BackendConfig struct {
	// BaseURL of the HTTP recognition service. Empty selects the
	// rule-based classifier (degraded mode).
	BaseURL             string        `json:"base_url"`
	Timeout             time.Duration `json:"timeout"`
	MaxRetries          int           `json:"max_retries"`
	RetryDelay          time.Duration `json:"retry_delay"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
}

type BatchConfig struct {
	Workers   int    `json:"workers"`
	OutputDir string `json:"output_dir"`
}

type StorageConfig struct {
	// Path of the sqlite history database. Empty disables persistence.
	Path string `json:"path"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Backend: BackendConfig{
			BaseURL:             getEnv("BACKEND_URL", ""),
			Timeout:             getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
			MaxRetries:          getEnvAsInt("BACKEND_MAX_RETRIES", 3),
			RetryDelay:          getEnvAsDuration("BACKEND_RETRY_DELAY", 1*time.Second),
			HealthCheckInterval: getEnvAsDuration("BACKEND_HEALTH_CHECK_INTERVAL", 30*time.Second),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("BATCH_WORKERS", 1),
			OutputDir: getEnv("BATCH_OUTPUT_DIR", ""),
		},
		Storage: StorageConfig{
			Path: getEnv("STORAGE_PATH", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

func (c *Config) ValidateConfig(logger *zap.Logger) error {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "server port must be between 1 and 65535")
	}

	if c.Batch.Workers < 1 {
		errors = append(errors, "batch workers must be at least 1")
	}

	if c.Backend.BaseURL == "" {
		logger.Warn("No recognition backend configured, using rule-based classifier")
	}

	if c.Backend.MaxRetries < 0 {
		errors = append(errors, "backend max retries must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, ", "))
	}

	return nil
}

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
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
