package review

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	provider   string
	durationMs int64
	ok         bool
}

// StatsSnapshot aggregates recent LLM calls. Latency figures cover
// successful calls only.
type StatsSnapshot struct {
	Count     int                         `json:"count"`
	Failures  int                         `json:"failures"`
	MinMs     int64                       `json:"min_ms"`
	MaxMs     int64                       `json:"max_ms"`
	AvgMs     float64                     `json:"avg_ms"`
	P50Ms     float64                     `json:"p50_ms"`
	P95Ms     float64                     `json:"p95_ms"`
	P99Ms     float64                     `json:"p99_ms"`
	Providers map[string]ProviderSnapshot `json:"providers,omitempty"`
}

// ProviderSnapshot is the per-provider share of a StatsSnapshot.
type ProviderSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	AvgMs    float64 `json:"avg_ms"`
}

// LLMStats tracks recent LLM calls within a rolling window.
type LLMStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLLMStats(maxAge time.Duration) *LLMStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LLMStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one call outcome.
func (s *LLMStats) Record(provider string, durationMs int64, ok bool) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		provider:   provider,
		durationMs: durationMs,
		ok:         ok,
	})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	snap := StatsSnapshot{Providers: make(map[string]ProviderSnapshot)}
	sums := make(map[string]int64)
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		ps := snap.Providers[sm.provider]
		if !sm.ok {
			ps.Failures++
			snap.Failures++
			snap.Providers[sm.provider] = ps
			continue
		}
		ps.Count++
		sums[sm.provider] += sm.durationMs
		snap.Providers[sm.provider] = ps
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	for name, ps := range snap.Providers {
		if ps.Count > 0 {
			ps.AvgMs = float64(sums[name]) / float64(ps.Count)
			snap.Providers[name] = ps
		}
	}
	if len(values) == 0 {
		return snap
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
