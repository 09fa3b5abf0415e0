package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers storage operation metrics and exposes them in
// Prometheus format. Every recording method is safe to call on a nil
// Collector, so callers can wire metrics in optionally.
type Collector struct {
	mu       sync.RWMutex
	config   *Config
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationSize     *prometheus.HistogramVec
	retryCounter      *prometheus.CounterVec
	sessionsGauge     prometheus.Gauge

	operations map[string]*OperationStats
	lastReset  time.Time

	server *http.Server
}

// Config represents metrics configuration
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// OperationStats tracks aggregate numbers for one operation type
type OperationStats struct {
	Count         int64         `json:"count"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalBytes    int64         `json:"total_bytes"`
	Errors        int64         `json:"errors"`
	Retries       int64         `json:"retries"`
	LastOperation time.Time     `json:"last_operation"`
}

// NewCollector creates a new metrics collector
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = &Config{
			Enabled:   true,
			Addr:      ":9090",
			Path:      "/metrics",
			Namespace: "ftpstore",
		}
	}
	if config.Path == "" {
		config.Path = "/metrics"
	}
	if config.Namespace == "" {
		config.Namespace = "ftpstore"
	}

	if !config.Enabled {
		return &Collector{config: config}, nil
	}

	registry := prometheus.NewRegistry()

	collector := &Collector{
		config:     config,
		registry:   registry,
		operations: make(map[string]*OperationStats),
		lastReset:  time.Now(),
	}

	collector.initMetrics()

	if err := collector.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return collector, nil
}

// Start serves the metrics endpoint over HTTP until Stop is called.
// A disabled collector starts nothing.
func (c *Collector) Start(ctx context.Context) error {
	if c == nil || !c.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(c.config.Path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", c.healthHandler)
	mux.HandleFunc("/debug/operations", c.debugOperationsHandler)

	c.server = &http.Server{
		Addr:              c.config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second, // Prevent Slowloris attacks
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the metrics endpoint
func (c *Collector) Stop(ctx context.Context) error {
	if c == nil || c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}

// RecordOperation records one storage operation outcome
func (c *Collector) RecordOperation(operation string, duration time.Duration, size int64, success bool) {
	if c == nil || !c.config.Enabled {
		return
	}

	c.mu.Lock()
	stats := c.statsLocked(operation)
	stats.Count++
	stats.TotalDuration += duration
	stats.TotalBytes += size
	if !success {
		stats.Errors++
	}
	stats.LastOperation = time.Now()
	c.mu.Unlock()

	status := "success"
	if !success {
		status = "error"
	}
	c.operationCounter.With(prometheus.Labels{
		"operation": operation,
		"status":    status,
	}).Inc()
	c.operationDuration.With(prometheus.Labels{
		"operation": operation,
	}).Observe(duration.Seconds())
	if size > 0 {
		c.operationSize.With(prometheus.Labels{
			"operation": operation,
		}).Observe(float64(size))
	}
}

// RecordRetry records one retried attempt of an operation
func (c *Collector) RecordRetry(operation string) {
	if c == nil || !c.config.Enabled {
		return
	}

	c.mu.Lock()
	c.statsLocked(operation).Retries++
	c.mu.Unlock()

	c.retryCounter.With(prometheus.Labels{
		"operation": operation,
	}).Inc()
}

// SetSessions records the current number of pooled sessions
func (c *Collector) SetSessions(count int) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.sessionsGauge.Set(float64(count))
}

// GetMetrics returns a copy of the current per-operation stats
func (c *Collector) GetMetrics() map[string]OperationStats {
	if c == nil || !c.config.Enabled {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	operations := make(map[string]OperationStats, len(c.operations))
	for k, v := range c.operations {
		operations[k] = *v
	}
	return operations
}

// ResetMetrics resets the internal tracking map
func (c *Collector) ResetMetrics() {
	if c == nil || !c.config.Enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.operations = make(map[string]*OperationStats)
	c.lastReset = time.Now()
}

// statsLocked returns the tracking entry for operation, creating it on
// first use. Callers hold c.mu.
func (c *Collector) statsLocked(operation string) *OperationStats {
	stats, ok := c.operations[operation]
	if !ok {
		stats = &OperationStats{}
		c.operations[operation] = stats
	}
	return stats
}

func (c *Collector) initMetrics() {
	c.operationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.config.Namespace,
			Name:      "operations_total",
			Help:      "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.config.Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of storage operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"operation"},
	)

	c.operationSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.config.Namespace,
			Name:      "operation_size_bytes",
			Help:      "Bytes transferred per storage operation",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 20), // 1KB to ~1GB
		},
		[]string{"operation"},
	)

	c.retryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.config.Namespace,
			Name:      "retries_total",
			Help:      "Total number of retried operation attempts",
		},
		[]string{"operation"},
	)

	c.sessionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: c.config.Namespace,
			Name:      "sessions",
			Help:      "Number of pooled control connections",
		},
	)
}

func (c *Collector) registerMetrics() error {
	metrics := []prometheus.Collector{
		c.operationCounter,
		c.operationDuration,
		c.operationSize,
		c.retryCounter,
		c.sessionsGauge,
	}

	for _, metric := range metrics {
		if err := c.registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// HTTP handlers

func (c *Collector) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"ftpstore-metrics"}`)) // Ignore write error for health check
}

func (c *Collector) debugOperationsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	snapshot := struct {
		Uptime     string                     `json:"uptime"`
		LastReset  time.Time                  `json:"last_reset"`
		Operations map[string]*OperationStats `json:"operations"`
	}{
		Uptime:     time.Since(c.lastReset).String(),
		LastReset:  c.lastReset,
		Operations: c.operations,
	}
	body, err := json.MarshalIndent(snapshot, "", "  ")
	c.mu.RUnlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
