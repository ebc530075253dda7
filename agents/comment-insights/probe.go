package commentinsights

import (
	"context"
	"fmt"
	"time"

	"comment-insights/shared/scheduler"
)

type probedStore interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// ProbeMetrics implements the scheduler.Metrics interface
type ProbeMetrics struct {
	Records int `json:"records"`
}

// GetSummary implements the scheduler.Metrics interface
func (m ProbeMetrics) GetSummary() string {
	return fmt.Sprintf("history store reachable, %d records", m.Records)
}

// HistoryProbe is a scheduled job that checks the history store is
// reachable. A failed ping marks the service unhealthy.
type HistoryProbe struct {
	store   probedStore
	timeout time.Duration
}

func NewHistoryProbe(store probedStore) *HistoryProbe {
	return &HistoryProbe{store: store, timeout: 10 * time.Second}
}

func (p *HistoryProbe) Name() string {
	return "History Store Probe"
}

func (p *HistoryProbe) RunOnce(ctx context.Context, events *scheduler.JobEvents) error {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("history store unreachable: %w", err)
	}

	n, err := p.store.Count(ctx)
	if err != nil {
		events.OnPartialFailure(err, time.Since(startTime))
		return nil
	}

	events.OnSuccess(ProbeMetrics{Records: n}, time.Since(startTime))
	return nil
}
