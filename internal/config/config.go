package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/ftpstore/ftpstore/internal/metrics"
	"github.com/ftpstore/ftpstore/pkg/storage/ftp"
)

// Configuration represents the complete application configuration
type Configuration struct {
	Storage ftp.Settings   `yaml:"storage"`
	Retry   RetryConfig    `yaml:"retry"`
	Logging LoggingConfig  `yaml:"logging"`
	Metrics metrics.Config `yaml:"metrics"`
}

// RetryConfig represents retry settings for remote operations
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Configuration {
	return &Configuration{
		Storage: ftp.Settings{
			ConnectTimeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: metrics.Config{
			Enabled:   false,
			Addr:      ":9090",
			Path:      "/metrics",
			Namespace: "ftpstore",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Configuration) LoadFromEnv() error {
	// Storage settings
	if val := os.Getenv("FTPSTORE_USERNAME"); val != "" {
		c.Storage.Username = val
	}
	if val := os.Getenv("FTPSTORE_PASSWORD"); val != "" {
		c.Storage.Password = val
	}
	if val := os.Getenv("FTPSTORE_ACTIVE_MODE"); val != "" {
		c.Storage.ActiveMode = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("FTPSTORE_CONNECT_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Storage.ConnectTimeout = duration
		}
	}
	if val := os.Getenv("FTPSTORE_DISABLE_EPSV"); val != "" {
		c.Storage.DisableEPSV = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("FTPSTORE_INSECURE_SKIP_VERIFY"); val != "" {
		c.Storage.InsecureSkipVerify = strings.ToLower(val) == "true"
	}

	// Retry settings
	if val := os.Getenv("FTPSTORE_RETRY_MAX_ATTEMPTS"); val != "" {
		if attempts, err := strconv.Atoi(val); err == nil {
			c.Retry.MaxAttempts = attempts
		}
	}
	if val := os.Getenv("FTPSTORE_RETRY_INITIAL_DELAY"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Retry.InitialDelay = duration
		}
	}
	if val := os.Getenv("FTPSTORE_RETRY_MAX_DELAY"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Retry.MaxDelay = duration
		}
	}

	// Logging settings
	if val := os.Getenv("FTPSTORE_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("FTPSTORE_LOG_FORMAT"); val != "" {
		c.Logging.Format = val
	}
	if val := os.Getenv("FTPSTORE_LOG_FILE"); val != "" {
		c.Logging.File = val
	}

	// Metrics settings
	if val := os.Getenv("FTPSTORE_METRICS_ENABLED"); val != "" {
		c.Metrics.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("FTPSTORE_METRICS_ADDR"); val != "" {
		c.Metrics.Addr = val
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max_attempts must be greater than 0")
	}
	if c.Retry.InitialDelay <= 0 {
		return fmt.Errorf("retry initial_delay must be greater than 0")
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("retry max_delay must be at least initial_delay")
	}
	if c.Retry.Multiplier < 1.0 {
		return fmt.Errorf("retry multiplier must be at least 1.0")
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics addr must be set when metrics are enabled")
	}

	return nil
}
