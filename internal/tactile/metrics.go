package tactile

import (
	"sync"
	"time"
)

// ExecutionMetrics tracks aggregate execution statistics.
type ExecutionMetrics struct {
	mu sync.RWMutex

	totalExecutions     int64
	completedExecutions int64
	failedExecutions    int64
	killedExecutions    int64
	truncatedExecutions int64
	totalDurationMs     int64
	totalCPUTimeMs      int64
	peakMemoryBytes     int64
	lastEventTime       time.Time
}

// NewExecutionMetrics creates a new metrics tracker.
func NewExecutionMetrics() *ExecutionMetrics {
	return &ExecutionMetrics{}
}

// RecordEvent updates metrics based on an audit event.
func (m *ExecutionMetrics) RecordEvent(event AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastEventTime = event.Timestamp

	switch event.Type {
	case AuditEventStart:
		m.totalExecutions++

	case AuditEventComplete:
		m.completedExecutions++
		m.addResult(event.Result)

	case AuditEventKilled:
		m.killedExecutions++
		m.addResult(event.Result)

	case AuditEventError:
		m.failedExecutions++
	}
}

func (m *ExecutionMetrics) addResult(r *ExecutionResult) {
	if r == nil {
		return
	}
	m.totalDurationMs += r.Duration.Milliseconds()
	if r.Truncated {
		m.truncatedExecutions++
	}
	if r.ResourceUsage != nil {
		m.totalCPUTimeMs += r.ResourceUsage.TotalCPUTimeMs()
		if r.ResourceUsage.MaxRSSBytes > m.peakMemoryBytes {
			m.peakMemoryBytes = r.ResourceUsage.MaxRSSBytes
		}
	}
}

// ExecutionMetricsSnapshot is a point-in-time snapshot of metrics.
type ExecutionMetricsSnapshot struct {
	TotalExecutions     int64
	CompletedExecutions int64
	FailedExecutions    int64
	KilledExecutions    int64
	TruncatedExecutions int64
	TotalDuration       time.Duration
	TotalCPUTime        time.Duration
	PeakMemoryBytes     int64
	AvgDuration         time.Duration
	LastEventTime       time.Time
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *ExecutionMetrics) Snapshot() ExecutionMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if ran := m.completedExecutions + m.killedExecutions; ran > 0 {
		avg = time.Duration(m.totalDurationMs/ran) * time.Millisecond
	}

	return ExecutionMetricsSnapshot{
		TotalExecutions:     m.totalExecutions,
		CompletedExecutions: m.completedExecutions,
		FailedExecutions:    m.failedExecutions,
		KilledExecutions:    m.killedExecutions,
		TruncatedExecutions: m.truncatedExecutions,
		TotalDuration:       time.Duration(m.totalDurationMs) * time.Millisecond,
		TotalCPUTime:        time.Duration(m.totalCPUTimeMs) * time.Millisecond,
		PeakMemoryBytes:     m.peakMemoryBytes,
		AvgDuration:         avg,
		LastEventTime:       m.lastEventTime,
	}
}
