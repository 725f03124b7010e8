// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"alcyxob/coaching-platform/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// jobTimeout bounds a single run of a job.
const jobTimeout = 5 * time.Minute

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a Scheduler that runs the cohort lifecycle job on spec (standard cron
// syntax or descriptors such as "@hourly").
func New(spec string, lifecycle service.CohortLifecycleService, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, func() { RunCohortLifecycle(context.Background(), lifecycle, logger) }); err != nil {
		return nil, fmt.Errorf("invalid cohort lifecycle schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
}

// RunCohortLifecycle runs one pass of the cohort lifecycle job.
func RunCohortLifecycle(ctx context.Context, lifecycle service.CohortLifecycleService, logger *zap.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	changed, err := lifecycle.AdvanceStatuses(ctx, time.Now().UTC())
	if err != nil {
		logger.Error("Cohort lifecycle job failed", zap.Int("changed", changed), zap.Error(err))
		return changed
	}
	logger.Debug("Cohort lifecycle job finished", zap.Int("changed", changed))
	return changed
}
