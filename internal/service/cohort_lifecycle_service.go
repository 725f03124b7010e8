package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/metrics"
	"alcyxob/coaching-platform/internal/repository"

	"go.uber.org/zap"
)

// CohortLifecycleService moves cohorts through upcoming -> active -> completed as
// their dates pass.
type CohortLifecycleService interface {
	// AdvanceStatuses applies every due transition as of now and returns how many
	// cohorts changed. A failing cohort does not stop the others.
	AdvanceStatuses(ctx context.Context, now time.Time) (int, error)
}

type cohortLifecycleService struct {
	cohortRepo repository.CohortRepository
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewCohortLifecycleService creates a new CohortLifecycleService.
func NewCohortLifecycleService(cohortRepo repository.CohortRepository, m *metrics.Metrics, logger *zap.Logger) CohortLifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cohortLifecycleService{cohortRepo: cohortRepo, metrics: m, logger: logger}
}

func (s *cohortLifecycleService) AdvanceStatuses(ctx context.Context, now time.Time) (int, error) {
	cohorts, err := s.cohortRepo.ListByStatus(ctx, []domain.CohortStatus{domain.CohortUpcoming, domain.CohortActive})
	if err != nil {
		return 0, fmt.Errorf("listing open cohorts: %w", err)
	}

	changed := 0
	var errs []error
	for i := range cohorts {
		c := &cohorts[i]
		next := c.StatusAt(now)
		if next == c.Status {
			continue
		}
		if err := s.cohortRepo.UpdateStatus(ctx, c.ID, next); err != nil {
			errs = append(errs, fmt.Errorf("cohort %s: %w", c.ID.Hex(), err))
			continue
		}
		changed++
		s.metrics.CohortStatusTransition(string(next))
		s.logger.Info("Cohort status advanced",
			zap.String("cohortId", c.ID.Hex()),
			zap.String("from", string(c.Status)),
			zap.String("to", string(next)),
		)
	}
	return changed, errors.Join(errs...)
}
