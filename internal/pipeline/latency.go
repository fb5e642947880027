package pipeline

import (
	"slices"
	"sync"
	"time"
)

type timing struct {
	at time.Time
	d  time.Duration
}

// LatencySnapshot aggregates the build times recorded within the window.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// Latency keeps the build times of recent runs in a rolling window.
type Latency struct {
	mu      sync.Mutex
	timings []timing
	window  time.Duration
}

func NewLatency(window time.Duration) *Latency {
	if window <= 0 {
		window = time.Hour
	}
	return &Latency{window: window}
}

// Record adds one build time. Negative durations count as zero.
func (l *Latency) Record(d time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	l.timings = append(l.timings, timing{at: now, d: max(d, 0)})
}

func (l *Latency) Snapshot() LatencySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(time.Now())
	if len(l.timings) == 0 {
		return LatencySnapshot{}
	}

	ms := make([]float64, len(l.timings))
	var sum float64
	for i, t := range l.timings {
		ms[i] = float64(t.d) / float64(time.Millisecond)
		sum += ms[i]
	}
	slices.Sort(ms)

	return LatencySnapshot{
		Count: len(ms),
		MinMs: ms[0],
		MaxMs: ms[len(ms)-1],
		AvgMs: sum / float64(len(ms)),
		P50Ms: percentile(ms, 50),
		P95Ms: percentile(ms, 95),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	l.timings = slices.DeleteFunc(l.timings, func(t timing) bool {
		return t.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two closest ranks of sorted.
func percentile(sorted []float64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return sorted[0]
	case pct >= 100:
		return sorted[len(sorted)-1]
	}
	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*(rank-float64(lower))
}
