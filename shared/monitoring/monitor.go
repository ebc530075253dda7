package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Monitor keeps a running tally of request outcomes and background probe
// results. It is shared by all request goroutines.
type Monitor struct {
	mu              sync.Mutex
	startedAt       time.Time
	successes       int
	partialFailures int
	lastSuccess     time.Time
	lastFailure     time.Time
	lastError       string
	probeHealthy    bool
	lastProbe       time.Time
}

// Snapshot is a point-in-time copy of the Monitor state.
type Snapshot struct {
	Healthy         bool      `json:"healthy"`
	StartedAt       time.Time `json:"started_at"`
	Successes       int       `json:"successes"`
	PartialFailures int       `json:"partial_failures"`
	LastSuccess     time.Time `json:"last_success,omitzero"`
	LastFailure     time.Time `json:"last_failure,omitzero"`
	LastError       string    `json:"last_error,omitzero"`
	LastProbe       time.Time `json:"last_probe,omitzero"`
	Summary         string    `json:"summary"`
}

func NewMonitor() *Monitor {
	return &Monitor{
		startedAt:    time.Now(),
		probeHealthy: true,
	}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.successes++
	m.lastSuccess = time.Now()
	m.mu.Unlock()

	logrus.Infof("Completed: %s (took %v)", summary, duration)
}

// RecordPartialFailure notes a degraded but answered request. Health is
// unaffected.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partialFailures++
	m.lastFailure = time.Now()
	m.lastError = err.Error()
	m.mu.Unlock()

	logrus.Warnf("PARTIAL FAILURE: %v (Duration: %v)", err, duration)
}

// RecordCriticalFailure marks the service unhealthy until the next
// successful probe.
func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.probeHealthy = false
	m.lastProbe = time.Now()
	m.lastFailure = m.lastProbe
	m.lastError = err.Error()
	m.mu.Unlock()

	logrus.Errorf("CRITICAL FAILURE: %v (Duration: %v)", err, duration)
}

// RecordProbeSuccess restores health after a background probe passes.
func (m *Monitor) RecordProbeSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.probeHealthy = true
	m.lastProbe = time.Now()
	m.mu.Unlock()

	logrus.Debugf("Probe passed: %s (took %v)", summary, duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeHealthy
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Healthy:         m.probeHealthy,
		StartedAt:       m.startedAt,
		Successes:       m.successes,
		PartialFailures: m.partialFailures,
		LastSuccess:     m.lastSuccess,
		LastFailure:     m.lastFailure,
		LastError:       m.lastError,
		LastProbe:       m.lastProbe,
		Summary:         m.summaryLocked(),
	}
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryLocked()
}

func (m *Monitor) summaryLocked() string {
	if !m.probeHealthy {
		return fmt.Sprintf("Unhealthy since %s: %s", m.lastProbe.Format("Jan 2 15:04"), m.lastError)
	}
	if m.lastSuccess.IsZero() {
		return "No analyses yet"
	}
	return fmt.Sprintf("%d analyses (%d degraded), last at %s",
		m.successes, m.partialFailures, m.lastSuccess.Format("Jan 2 15:04"))
}
