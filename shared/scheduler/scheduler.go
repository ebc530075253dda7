package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"comment-insights/shared/monitoring"
)

// Metrics defines the common interface for job metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// JobEvents provides callbacks for monitoring job execution
type JobEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Job is a unit of background work run on the schedule.
type Job interface {
	Name() string
	RunOnce(ctx context.Context, events *JobEvents) error
}

// Scheduler runs background jobs on a cron schedule and reports their
// outcomes to a Monitor.
type Scheduler struct {
	schedule string
	monitor  *monitoring.Monitor
	jobs     []Job
	cron     *cron.Cron
}

// New creates a Scheduler. schedule is a cron expression with a leading
// seconds field.
func New(schedule string, monitor *monitoring.Monitor, jobs ...Job) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		monitor:  monitor,
		jobs:     jobs,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start registers every job and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		_, err := s.cron.AddFunc(s.schedule, func() {
			if err := s.RunOnce(ctx, job); err != nil {
				logrus.Errorf("Error running scheduled job %s: %v", job.Name(), err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to add cron job %s: %w", job.Name(), err)
		}
	}

	logrus.Infof("Scheduler started for %d job(s) with schedule: %s", len(s.jobs), s.schedule)
	s.cron.Start()

	<-ctx.Done()
	logrus.Infof("Scheduler stopped: %s", s.monitor.GetStatusSummary())
	<-s.cron.Stop().Done()
	return ctx.Err()
}

// RunOnce executes job immediately and records the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	startTime := time.Now()
	jobName := job.Name()

	logrus.Debugf("Starting %s run...", jobName)

	events := &JobEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			if !s.monitor.IsHealthy() {
				logrus.Infof("%s recovered: %s", jobName, metrics.GetSummary())
			}
			s.monitor.RecordProbeSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", jobName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", jobName, err), duration)
		},
	}

	if err := job.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", jobName, err), duration)
		return fmt.Errorf("%s run failed: %w", jobName, err)
	}

	return nil
}
