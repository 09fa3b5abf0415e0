/*
Package metrics provides Prometheus-based metrics collection for ftpstore.

# Overview

The metrics package tracks storage operations, retried attempts, and the
session pool. It keeps two views of the same numbers: Prometheus metrics
for monitoring systems and an internal per-operation tracking map for
debugging.

Architecture

	┌─────────────┐
	│  Collector  │  ← Main metrics aggregator
	└──────┬──────┘
	       │
	   ┌───┴────────────────────────────────┐
	   │                                    │
	┌──▼───────────┐         ┌─────────────▼──────┐
	│  Prometheus  │         │  HTTP Endpoints    │
	│   Registry   │         │  /metrics          │
	│              │         │  /health           │
	│ - Counters   │         │  /debug/operations │
	│ - Histograms │         └────────────────────┘
	│ - Gauge      │
	└──────────────┘

# Core Components

Collector: aggregates and exports metrics. All recording methods are safe
on a nil *Collector, so callers that do not want metrics simply never
construct one.

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   true,
		Addr:      ":9090",
		Path:      "/metrics",
		Namespace: "ftpstore",
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := collector.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer collector.Stop(ctx)

# Recording Operations

Operations are recorded with timing, transferred bytes, and outcome:

	startTime := time.Now()
	err := obj.Retrieve(ctx, localPath)
	collector.RecordOperation("retrieve", time.Since(startTime), n, err == nil)

Retried attempts and the pooled session count have their own hooks:

	collector.RecordRetry("store")
	collector.SetSessions(len(pool))

# Prometheus Metrics

Counters:
  - ftpstore_operations_total{operation,status}: Operations by type and outcome
  - ftpstore_retries_total{operation}: Retried attempts by operation

Histograms:
  - ftpstore_operation_duration_seconds{operation}: Operation latency distribution
  - ftpstore_operation_size_bytes{operation}: Transferred bytes distribution

Gauges:
  - ftpstore_sessions: Current number of pooled control connections

# HTTP Endpoints

/metrics - Prometheus-formatted metrics (for scraping)

	curl http://localhost:9090/metrics

/health - Health check endpoint

	curl http://localhost:9090/health
	{"status":"healthy","service":"ftpstore-metrics"}

/debug/operations - Per-operation summary as JSON

	curl http://localhost:9090/debug/operations
	{
	  "uptime": "2h15m30s",
	  "operations": {
	    "retrieve": {
	      "count": 15234,
	      "errors": 12,
	      "retries": 31
	    }
	  }
	}
*/
package metrics
