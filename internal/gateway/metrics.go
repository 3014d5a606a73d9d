package gateway

import (
	"sync/atomic"
	"time"
)

// Metrics tracks gateway-level counters using atomic operations for lock-free concurrency.
type Metrics struct {
	logins       atomic.Int64
	turns        atomic.Int64
	errors       atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// RecordLogin records a successful login.
func (m *Metrics) RecordLogin() {
	m.logins.Add(1)
}

// RecordTurn records a completed chat turn.
func (m *Metrics) RecordTurn(latency time.Duration) {
	m.turns.Add(1)
	m.totalLatency.Add(int64(latency))
}

// RecordError records a processing error.
func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	turns := m.turns.Load()
	snap := MetricsSnapshot{
		Logins: m.logins.Load(),
		Turns:  turns,
		Errors: m.errors.Load(),
	}
	if turns > 0 {
		snap.AvgLatency = time.Duration(m.totalLatency.Load() / turns)
	}
	return snap
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Logins     int64         `json:"logins"`
	Turns      int64         `json:"turns"`
	Errors     int64         `json:"errors"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
}
