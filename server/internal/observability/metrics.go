package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts handled updates per handler.
type Metrics struct {
	mu sync.Mutex

	updateTotal  atomic.Int64
	updateFailed atomic.Int64
	rateLimited  atomic.Int64

	handlerMetrics map[string]*HandlerMetrics

	// Last maxDurations handling times, for the percentile.
	durations    []time.Duration
	maxDurations int
}

// HandlerMetrics represents metrics for one handler.
type HandlerMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		handlerMetrics: make(map[string]*HandlerMetrics),
		durations:      make([]time.Duration, 0, maxDurations),
		maxDurations:   maxDurations,
	}
}

// RecordUpdate records a handled update.
func (m *Metrics) RecordUpdate(handler string, duration time.Duration, failed bool) {
	m.updateTotal.Add(1)
	hm := m.getHandlerMetrics(handler)
	hm.count.Add(1)
	hm.totalDuration.Add(duration.Milliseconds())
	if failed {
		m.updateFailed.Add(1)
		hm.errorCount.Add(1)
	}

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// RecordRateLimited records an update dropped by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Add(1)
}

func (m *Metrics) getHandlerMetrics(handler string) *HandlerMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	hm, ok := m.handlerMetrics[handler]
	if !ok {
		hm = &HandlerMetrics{}
		m.handlerMetrics[handler] = hm
	}
	return hm
}

// HandlerStats is a snapshot of one handler's metrics.
type HandlerStats struct {
	Count         int64   `json:"count"`
	Errors        int64   `json:"errors"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	UpdateTotal  int64                   `json:"update_total"`
	UpdateFailed int64                   `json:"update_failed"`
	RateLimited  int64                   `json:"rate_limited"`
	P95Ms        int64                   `json:"p95_ms"`
	Handlers     map[string]HandlerStats `json:"handlers"`
}

// Snapshot returns the current metrics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UpdateTotal:  m.updateTotal.Load(),
		UpdateFailed: m.updateFailed.Load(),
		RateLimited:  m.rateLimited.Load(),
		Handlers:     make(map[string]HandlerStats, len(m.handlerMetrics)),
	}
	for name, hm := range m.handlerMetrics {
		stats := HandlerStats{Count: hm.count.Load(), Errors: hm.errorCount.Load()}
		if stats.Count > 0 {
			stats.AvgDurationMs = float64(hm.totalDuration.Load()) / float64(stats.Count)
		}
		snap.Handlers[name] = stats
	}

	if len(m.durations) > 0 {
		sorted := append([]time.Duration(nil), m.durations...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		idx := int(float64(len(sorted)-1) * 0.95)
		snap.P95Ms = sorted[idx].Milliseconds()
	}
	return snap
}
