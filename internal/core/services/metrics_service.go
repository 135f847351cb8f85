package services

import (
	"sync"
	"time"
)

// MetricsSink receives engine events for export. The Prometheus
// collector implements it; the in-process counters below work without one.
type MetricsSink interface {
	RecordUpload()
	RecordDelete()
	RecordDelegation()
	RecordRevocation()
	RecordDenial(reason string)
	RecordAnnotations(count int)
	RecordLockWait(d time.Duration)
}

// MetricsService keeps in-process counters for the engine and forwards
// every event to an optional sink.
type MetricsService struct {
	mu   sync.RWMutex
	sink MetricsSink

	uploads     int64
	deletes     int64
	delegations int64
	revocations int64
	annotations int64
	denials     map[string]int64

	startedAt time.Time
}

func NewMetricsService(sink MetricsSink) *MetricsService {
	return &MetricsService{
		sink:      sink,
		denials:   make(map[string]int64),
		startedAt: time.Now(),
	}
}

func (m *MetricsService) RecordUpload() {
	m.mu.Lock()
	m.uploads++
	m.mu.Unlock()
	if m.sink != nil {
		m.sink.RecordUpload()
	}
}

func (m *MetricsService) RecordDelete() {
	m.mu.Lock()
	m.deletes++
	m.mu.Unlock()
	if m.sink != nil {
		m.sink.RecordDelete()
	}
}

func (m *MetricsService) RecordDelegation() {
	m.mu.Lock()
	m.delegations++
	m.mu.Unlock()
	if m.sink != nil {
		m.sink.RecordDelegation()
	}
}

func (m *MetricsService) RecordRevocation() {
	m.mu.Lock()
	m.revocations++
	m.mu.Unlock()
	if m.sink != nil {
		m.sink.RecordRevocation()
	}
}

func (m *MetricsService) RecordDenial(reason string) {
	m.mu.Lock()
	m.denials[reason]++
	m.mu.Unlock()
	if m.sink != nil {
		m.sink.RecordDenial(reason)
	}
}

func (m *MetricsService) RecordAnnotations(count int) {
	m.mu.Lock()
	m.annotations += int64(count)
	m.mu.Unlock()
	if m.sink != nil {
		m.sink.RecordAnnotations(count)
	}
}

// RecordLockWait is forwarded to the sink only; the in-process
// snapshot carries counters, not latency distributions.
func (m *MetricsService) RecordLockWait(d time.Duration) {
	if m.sink != nil {
		m.sink.RecordLockWait(d)
	}
}

// Snapshot returns a copy of the current counters for the health endpoint.
func (m *MetricsService) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	denials := make(map[string]int64, len(m.denials))
	for reason, n := range m.denials {
		denials[reason] = n
	}

	return map[string]interface{}{
		"uploads":        m.uploads,
		"deletes":        m.deletes,
		"delegations":    m.delegations,
		"revocations":    m.revocations,
		"annotations":    m.annotations,
		"denials":        denials,
		"uptime_seconds": time.Since(m.startedAt).Seconds(),
	}
}
