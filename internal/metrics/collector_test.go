package metrics

import (
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	t.Run("with valid config", func(t *testing.T) {
		config := &Config{
			Enabled:   true,
			Addr:      ":9090",
			Path:      "/metrics",
			Namespace: "test",
		}
		collector, err := NewCollector(config)
		if err != nil {
			t.Fatalf("NewCollector() error = %v, want nil", err)
		}
		if collector == nil {
			t.Fatal("NewCollector() returned nil collector")
		}
		if collector.config != config {
			t.Error("collector.config does not match input config")
		}
		if collector.registry == nil {
			t.Error("collector.registry is nil")
		}
		if collector.operations == nil {
			t.Error("collector.operations map is nil")
		}
	})

	t.Run("with nil config uses defaults", func(t *testing.T) {
		collector, err := NewCollector(nil)
		if err != nil {
			t.Fatalf("NewCollector(nil) error = %v, want nil", err)
		}
		if collector.config == nil {
			t.Fatal("default config is nil")
		}
		if collector.config.Addr != ":9090" {
			t.Errorf("default addr = %q, want %q", collector.config.Addr, ":9090")
		}
		if collector.config.Path != "/metrics" {
			t.Errorf("default path = %q, want %q", collector.config.Path, "/metrics")
		}
		if collector.config.Namespace != "ftpstore" {
			t.Errorf("default namespace = %q, want %q", collector.config.Namespace, "ftpstore")
		}
	})

	t.Run("with disabled config", func(t *testing.T) {
		collector, err := NewCollector(&Config{Enabled: false})
		if err != nil {
			t.Fatalf("NewCollector() error = %v, want nil", err)
		}
		if collector.registry != nil {
			t.Error("disabled collector should not have registry")
		}
	})
}

func TestRecordOperation(t *testing.T) {
	t.Parallel()

	t.Run("record successful operation", func(t *testing.T) {
		collector, err := NewCollector(&Config{Enabled: true, Namespace: "test"})
		if err != nil {
			t.Fatalf("NewCollector() error = %v", err)
		}

		collector.RecordOperation("retrieve", 100*time.Millisecond, 1024, true)

		op, exists := collector.GetMetrics()["retrieve"]
		if !exists {
			t.Fatal("retrieve operation not recorded")
		}
		if op.Count != 1 {
			t.Errorf("op.Count = %d, want 1", op.Count)
		}
		if op.TotalBytes != 1024 {
			t.Errorf("op.TotalBytes = %d, want 1024", op.TotalBytes)
		}
		if op.Errors != 0 {
			t.Errorf("op.Errors = %d, want 0", op.Errors)
		}
	})

	t.Run("record failed operation", func(t *testing.T) {
		collector, err := NewCollector(&Config{Enabled: true, Namespace: "test"})
		if err != nil {
			t.Fatalf("NewCollector() error = %v", err)
		}

		collector.RecordOperation("store", 50*time.Millisecond, 512, false)

		op := collector.GetMetrics()["store"]
		if op.Errors != 1 {
			t.Errorf("op.Errors = %d, want 1", op.Errors)
		}
	})

	t.Run("record multiple operations", func(t *testing.T) {
		collector, err := NewCollector(&Config{Enabled: true, Namespace: "test"})
		if err != nil {
			t.Fatalf("NewCollector() error = %v", err)
		}

		collector.RecordOperation("retrieve", 100*time.Millisecond, 1000, true)
		collector.RecordOperation("retrieve", 200*time.Millisecond, 2000, true)
		collector.RecordOperation("retrieve", 300*time.Millisecond, 3000, false)

		op := collector.GetMetrics()["retrieve"]
		if op.Count != 3 {
			t.Errorf("op.Count = %d, want 3", op.Count)
		}
		if op.TotalBytes != 6000 {
			t.Errorf("op.TotalBytes = %d, want 6000", op.TotalBytes)
		}
		if op.Errors != 1 {
			t.Errorf("op.Errors = %d, want 1", op.Errors)
		}
		if op.TotalDuration != 600*time.Millisecond {
			t.Errorf("op.TotalDuration = %v, want 600ms", op.TotalDuration)
		}
	})

	t.Run("disabled collector ignores operations", func(t *testing.T) {
		collector, err := NewCollector(&Config{Enabled: false})
		if err != nil {
			t.Fatalf("NewCollector() error = %v", err)
		}

		collector.RecordOperation("retrieve", 100*time.Millisecond, 1024, true)

		if len(collector.operations) != 0 {
			t.Error("disabled collector should not track operations")
		}
	})

	t.Run("nil collector is a no-op", func(t *testing.T) {
		var collector *Collector

		collector.RecordOperation("retrieve", time.Millisecond, 1, true)
		collector.RecordRetry("retrieve")
		collector.SetSessions(3)

		if got := collector.GetMetrics(); got != nil {
			t.Errorf("GetMetrics() on nil collector = %v, want nil", got)
		}
	})
}

func TestRecordRetry(t *testing.T) {
	t.Parallel()

	collector, err := NewCollector(&Config{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}

	collector.RecordRetry("store")
	collector.RecordRetry("store")
	collector.RecordRetry("retrieve")

	if got := collector.GetMetrics()["store"].Retries; got != 2 {
		t.Errorf("store retries = %d, want 2", got)
	}
	if got := collector.GetMetrics()["retrieve"].Retries; got != 1 {
		t.Errorf("retrieve retries = %d, want 1", got)
	}
}

func TestSetSessions(t *testing.T) {
	t.Parallel()

	collector, err := NewCollector(&Config{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}

	// Should not panic on a live gauge.
	collector.SetSessions(0)
	collector.SetSessions(5)
	collector.SetSessions(2)
}

func TestResetMetrics(t *testing.T) {
	t.Parallel()

	collector, err := NewCollector(&Config{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}

	collector.RecordOperation("remove", time.Millisecond, 0, true)
	if len(collector.GetMetrics()) != 1 {
		t.Fatal("expected one tracked operation before reset")
	}

	collector.ResetMetrics()

	if len(collector.GetMetrics()) != 0 {
		t.Error("expected no tracked operations after reset")
	}
}

func TestGetMetricsReturnsCopy(t *testing.T) {
	t.Parallel()

	collector, err := NewCollector(&Config{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}

	collector.RecordOperation("exists", time.Millisecond, 0, true)

	snapshot := collector.GetMetrics()
	entry := snapshot["exists"]
	entry.Count = 99
	snapshot["exists"] = entry

	if got := collector.GetMetrics()["exists"].Count; got != 1 {
		t.Errorf("internal count = %d after mutating snapshot, want 1", got)
	}
}
