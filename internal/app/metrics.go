package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks projection maintenance counters.
type Metrics struct {
	// Rebase outcomes
	rebaseCount   atomic.Uint64
	rebaseTotalNs atomic.Int64
	rebaseMaxNs   atomic.Int64
	conflicts     atomic.Uint64

	// Projection rebuilds after a conflict or on open
	rebuildCount   atomic.Uint64
	rebuildTotalNs atomic.Int64

	// Edits rejected before reaching the projection
	rejected atomic.Uint64

	// Bytes of original text versus projected text, last observed
	originalBytes  atomic.Int64
	projectedBytes atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordRebase records a successful rebase.
func (m *Metrics) RecordRebase(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.rebaseCount.Add(1)
	m.rebaseTotalNs.Add(ns)

	for {
		old := m.rebaseMaxNs.Load()
		if ns <= old {
			break
		}
		if m.rebaseMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordConflict records a rebase that touched excluded content.
func (m *Metrics) RecordConflict() {
	m.conflicts.Add(1)
}

// RecordRebuild records a projection built from scratch.
func (m *Metrics) RecordRebuild(duration time.Duration) {
	m.rebuildCount.Add(1)
	m.rebuildTotalNs.Add(duration.Nanoseconds())
}

// RecordRejected records an edit batch that failed validation.
func (m *Metrics) RecordRejected() {
	m.rejected.Add(1)
}

// ObserveSizes records the current original and projected text sizes.
func (m *Metrics) ObserveSizes(original, projected int) {
	m.originalBytes.Store(int64(original))
	m.projectedBytes.Store(int64(projected))
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	rebases := m.rebaseCount.Load()
	rebuilds := m.rebuildCount.Load()

	var avgRebaseNs int64
	if rebases > 0 {
		avgRebaseNs = m.rebaseTotalNs.Load() / int64(rebases)
	}
	var avgRebuildNs int64
	if rebuilds > 0 {
		avgRebuildNs = m.rebuildTotalNs.Load() / int64(rebuilds)
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		Rebases:        rebases,
		AvgRebaseNs:    avgRebaseNs,
		MaxRebaseNs:    m.rebaseMaxNs.Load(),
		Conflicts:      m.conflicts.Load(),
		Rebuilds:       rebuilds,
		AvgRebuildNs:   avgRebuildNs,
		Rejected:       m.rejected.Load(),
		OriginalBytes:  m.originalBytes.Load(),
		ProjectedBytes: m.projectedBytes.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.rebaseCount.Store(0)
	m.rebaseTotalNs.Store(0)
	m.rebaseMaxNs.Store(0)
	m.conflicts.Store(0)
	m.rebuildCount.Store(0)
	m.rebuildTotalNs.Store(0)
	m.rejected.Store(0)
	m.originalBytes.Store(0)
	m.projectedBytes.Store(0)
	m.startTime = time.Now()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	Rebases        uint64
	AvgRebaseNs    int64
	MaxRebaseNs    int64
	Conflicts      uint64
	Rebuilds       uint64
	AvgRebuildNs   int64
	Rejected       uint64
	OriginalBytes  int64
	ProjectedBytes int64
}

// ConflictRate returns the percentage of rebase attempts that conflicted.
func (s MetricsSnapshot) ConflictRate() float64 {
	total := s.Rebases + s.Conflicts
	if total == 0 {
		return 0
	}
	return float64(s.Conflicts) / float64(total) * 100
}

// Ratio returns projected bytes as a fraction of original bytes.
func (s MetricsSnapshot) Ratio() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.ProjectedBytes) / float64(s.OriginalBytes)
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
