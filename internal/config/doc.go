/*
Package config provides configuration management for ftpstore with multi-source support.

This package implements a hierarchical configuration system that supports YAML files
and environment variables. It provides validation and type safety for all ftpstore
components.

# Configuration Architecture

Multi-source configuration hierarchy with precedence:

	┌─────────────────────────────────────────────┐
	│        Environment Variables                │ ← Highest Priority
	│           (FTPSTORE_*)                      │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│         Configuration Files                 │
	│            (YAML format)                    │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│           Default Values                    │ ← Lowest Priority
	│        (Compiled-in defaults)               │
	└─────────────────────────────────────────────┘

# Configuration Structure

Storage Settings:
- Credentials (username, password, anonymous fallback)
- Transfer mode flags (passive only, EPSV)
- Connect timeout and TLS verification

Retry Settings:
- Attempt budget for transient failures
- Exponential backoff delays and multiplier

Logging Settings:
- Level, format (text or json), optional log file

Metrics Settings:
- Prometheus endpoint address and path

# Usage Examples

Loading configuration:

	// Create with defaults
	cfg := config.NewDefault()

	// Load from file
	if err := cfg.LoadFromFile("/etc/ftpstore/config.yaml"); err != nil {
		log.Fatal(err)
	}

	// Load environment variables
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatal(err)
	}

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

Configuration file format:

	# ftpstore Configuration
	storage:
	  username: backups
	  password: hunter2
	  connect_timeout: 30s
	  disable_epsv: false
	  insecure_skip_verify: false

	retry:
	  max_attempts: 3
	  initial_delay: 1s
	  max_delay: 10s
	  multiplier: 2.0

	logging:
	  level: info
	  format: text
	  file: "/var/log/ftpstore.log"

	metrics:
	  enabled: true
	  addr: ":9090"
	  path: "/metrics"

# Environment Variables

Storage:

	FTPSTORE_USERNAME              Login user (empty means anonymous)
	FTPSTORE_PASSWORD              Login password
	FTPSTORE_ACTIVE_MODE           "true" to request active transfers
	FTPSTORE_CONNECT_TIMEOUT       Dial timeout, e.g. "30s"
	FTPSTORE_DISABLE_EPSV          "true" to force PASV over EPSV
	FTPSTORE_INSECURE_SKIP_VERIFY  "true" to skip TLS certificate verification

Retry:

	FTPSTORE_RETRY_MAX_ATTEMPTS    Attempt budget per remote command
	FTPSTORE_RETRY_INITIAL_DELAY   First backoff delay, e.g. "1s"
	FTPSTORE_RETRY_MAX_DELAY       Backoff ceiling, e.g. "10s"

Logging and metrics:

	FTPSTORE_LOG_LEVEL             trace, debug, info, warning, error
	FTPSTORE_LOG_FORMAT            text or json
	FTPSTORE_LOG_FILE              Log file path (stderr when empty)
	FTPSTORE_METRICS_ENABLED       "true" to serve Prometheus metrics
	FTPSTORE_METRICS_ADDR          Listen address, e.g. ":9090"
*/
package config
