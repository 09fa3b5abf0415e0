package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	if cfg.Storage.Username != "" {
		t.Errorf("Expected Username to be empty, got %s", cfg.Storage.Username)
	}
	if cfg.Storage.ConnectTimeout != 30*time.Second {
		t.Errorf("Expected ConnectTimeout to be 30s, got %v", cfg.Storage.ConnectTimeout)
	}
	if cfg.Storage.ActiveMode {
		t.Error("Expected ActiveMode to be disabled by default")
	}

	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts to be 3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialDelay != 1*time.Second {
		t.Errorf("Expected InitialDelay to be 1s, got %v", cfg.Retry.InitialDelay)
	}
	if cfg.Retry.MaxDelay != 10*time.Second {
		t.Errorf("Expected MaxDelay to be 10s, got %v", cfg.Retry.MaxDelay)
	}
	if cfg.Retry.Multiplier != 2.0 {
		t.Errorf("Expected Multiplier to be 2.0, got %f", cfg.Retry.Multiplier)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected Level to be info, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected Format to be text, got %s", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		t.Error("Expected Metrics to be disabled by default")
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("Expected Metrics Addr to be :9090, got %s", cfg.Metrics.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  func() *Configuration
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: func() *Configuration {
				return NewDefault()
			},
			wantErr: false,
		},
		{
			name: "invalid max attempts",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Retry.MaxAttempts = 0
				return cfg
			},
			wantErr: true,
			errMsg:  "max_attempts must be greater than 0",
		},
		{
			name: "invalid initial delay",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Retry.InitialDelay = 0
				return cfg
			},
			wantErr: true,
			errMsg:  "initial_delay must be greater than 0",
		},
		{
			name: "max delay below initial delay",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Retry.MaxDelay = 500 * time.Millisecond
				return cfg
			},
			wantErr: true,
			errMsg:  "max_delay must be at least initial_delay",
		},
		{
			name: "invalid multiplier",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Retry.Multiplier = 0.5
				return cfg
			},
			wantErr: true,
			errMsg:  "multiplier must be at least 1.0",
		},
		{
			name: "invalid log level",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Logging.Level = "verbose"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name: "invalid log format",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Logging.Format = "xml"
				return cfg
			},
			wantErr: true,
			errMsg:  "invalid log format",
		},
		{
			name: "metrics enabled without addr",
			config: func() *Configuration {
				cfg := NewDefault()
				cfg.Metrics.Enabled = true
				cfg.Metrics.Addr = ""
				return cfg
			},
			wantErr: true,
			errMsg:  "metrics addr must be set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config()
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want error containing %v", err, tt.errMsg)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  username: backups
  password: hunter2
  connect_timeout: 10s
  disable_epsv: true

retry:
  max_attempts: 5
  initial_delay: 250ms

logging:
  level: debug
  format: json

metrics:
  enabled: true
  addr: ":9313"
`

	err := os.WriteFile(configFile, []byte(configContent), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg := NewDefault()
	err = cfg.LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Storage.Username != "backups" {
		t.Errorf("Expected Username to be backups, got %s", cfg.Storage.Username)
	}
	if cfg.Storage.Password != "hunter2" {
		t.Errorf("Expected Password to be hunter2, got %s", cfg.Storage.Password)
	}
	if cfg.Storage.ConnectTimeout != 10*time.Second {
		t.Errorf("Expected ConnectTimeout to be 10s, got %v", cfg.Storage.ConnectTimeout)
	}
	if !cfg.Storage.DisableEPSV {
		t.Error("Expected DisableEPSV to be true")
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Expected MaxAttempts to be 5, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialDelay != 250*time.Millisecond {
		t.Errorf("Expected InitialDelay to be 250ms, got %v", cfg.Retry.InitialDelay)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected Level to be debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected Format to be json, got %s", cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected Metrics to be enabled")
	}
	if cfg.Metrics.Addr != ":9313" {
		t.Errorf("Expected Metrics Addr to be :9313, got %s", cfg.Metrics.Addr)
	}
}

func TestLoadFromFileNonExistent(t *testing.T) {
	cfg := NewDefault()
	err := cfg.LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error when loading non-existent config file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	testEnvVars := map[string]string{
		"FTPSTORE_USERNAME":             "archiver",
		"FTPSTORE_PASSWORD":             "secret",
		"FTPSTORE_ACTIVE_MODE":          "true",
		"FTPSTORE_CONNECT_TIMEOUT":      "5s",
		"FTPSTORE_DISABLE_EPSV":         "true",
		"FTPSTORE_INSECURE_SKIP_VERIFY": "true",
		"FTPSTORE_RETRY_MAX_ATTEMPTS":   "7",
		"FTPSTORE_RETRY_INITIAL_DELAY":  "100ms",
		"FTPSTORE_RETRY_MAX_DELAY":      "20s",
		"FTPSTORE_LOG_LEVEL":            "warning",
		"FTPSTORE_LOG_FORMAT":           "json",
		"FTPSTORE_METRICS_ENABLED":      "true",
		"FTPSTORE_METRICS_ADDR":         ":9100",
	}

	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	cfg := NewDefault()
	err := cfg.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Storage.Username != "archiver" {
		t.Errorf("Expected Username to be archiver, got %s", cfg.Storage.Username)
	}
	if cfg.Storage.Password != "secret" {
		t.Errorf("Expected Password to be secret, got %s", cfg.Storage.Password)
	}
	if !cfg.Storage.ActiveMode {
		t.Error("Expected ActiveMode to be true")
	}
	if cfg.Storage.ConnectTimeout != 5*time.Second {
		t.Errorf("Expected ConnectTimeout to be 5s, got %v", cfg.Storage.ConnectTimeout)
	}
	if !cfg.Storage.DisableEPSV {
		t.Error("Expected DisableEPSV to be true")
	}
	if !cfg.Storage.InsecureSkipVerify {
		t.Error("Expected InsecureSkipVerify to be true")
	}
	if cfg.Retry.MaxAttempts != 7 {
		t.Errorf("Expected MaxAttempts to be 7, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialDelay != 100*time.Millisecond {
		t.Errorf("Expected InitialDelay to be 100ms, got %v", cfg.Retry.InitialDelay)
	}
	if cfg.Retry.MaxDelay != 20*time.Second {
		t.Errorf("Expected MaxDelay to be 20s, got %v", cfg.Retry.MaxDelay)
	}
	if cfg.Logging.Level != "warning" {
		t.Errorf("Expected Level to be warning, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected Format to be json, got %s", cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected Metrics to be enabled")
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Expected Metrics Addr to be :9100, got %s", cfg.Metrics.Addr)
	}
}

func TestSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "saved_config.yaml")

	cfg := NewDefault()
	cfg.Storage.Username = "mirror"
	cfg.Logging.Level = "debug"

	err := cfg.SaveToFile(configFile)
	if err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	newCfg := NewDefault()
	err = newCfg.LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if newCfg.Storage.Username != "mirror" {
		t.Errorf("Expected Username to be mirror, got %s", newCfg.Storage.Username)
	}
	if newCfg.Logging.Level != "debug" {
		t.Errorf("Expected Level to be debug, got %s", newCfg.Logging.Level)
	}
}

func TestSaveToFileCreateDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := NewDefault()
	err := cfg.SaveToFile(configFile)
	if err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	if _, err := os.Stat(filepath.Dir(configFile)); os.IsNotExist(err) {
		t.Error("Config directory was not created")
	}
}
