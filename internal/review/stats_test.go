package review

import (
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("claude", 100, true)
	stats.Record("claude", 200, true)
	stats.Record("claude", 300, true)
	stats.Record("openai", 400, true)
	stats.Record("openai", 500, true)

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if p := snap.Providers["claude"]; p.Count != 3 || p.AvgMs != 200 {
		t.Fatalf("expected claude count=3 avg=200, got %+v", p)
	}
	if p := snap.Providers["openai"]; p.Count != 2 || p.AvgMs != 450 {
		t.Fatalf("expected openai count=2 avg=450, got %+v", p)
	}
}

func TestLLMStatsFailuresExcludedFromLatency(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("claude", 9000, false)
	stats.Record("ollama", 100, true)

	snap := stats.Snapshot()
	if snap.Count != 1 || snap.Failures != 1 {
		t.Fatalf("expected count=1 failures=1, got count=%d failures=%d", snap.Count, snap.Failures)
	}
	if snap.MaxMs != 100 {
		t.Fatalf("expected failed call excluded from latency, got max=%d", snap.MaxMs)
	}
	if p := snap.Providers["claude"]; p.Failures != 1 || p.Count != 0 {
		t.Fatalf("expected claude failures=1 count=0, got %+v", p)
	}
}

func TestLLMStatsOnlyFailures(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("claude", 10, false)
	snap := stats.Snapshot()
	if snap.Count != 0 || snap.Failures != 1 {
		t.Fatalf("expected count=0 failures=1, got %+v", snap)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLLMStats(10 * time.Millisecond)
	stats.Record("claude", 100, true)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record("claude", 200, true)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLLMStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record("claude", -10, true)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
