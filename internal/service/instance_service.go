package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/metrics"
	"alcyxob/coaching-platform/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstanceService resolves the mutable program instance behind a cohort.
type InstanceService interface {
	// ResolveCohortInstance returns the cohort's instance, materialising it from the
	// program template on first use. Concurrent first calls yield a single instance.
	ResolveCohortInstance(ctx context.Context, program *domain.Program, cohort *domain.ProgramCohort) (*domain.ProgramInstance, error)
}

type instanceService struct {
	instanceRepo repository.InstanceRepository
	legacyRepo   repository.LegacyWeekRepository
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewInstanceService creates a new InstanceService.
func NewInstanceService(
	instanceRepo repository.InstanceRepository,
	legacyRepo repository.LegacyWeekRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) InstanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instanceService{
		instanceRepo: instanceRepo,
		legacyRepo:   legacyRepo,
		metrics:      m,
		logger:       logger,
	}
}

func (s *instanceService) ResolveCohortInstance(ctx context.Context, program *domain.Program, cohort *domain.ProgramCohort) (*domain.ProgramInstance, error) {
	if cohort.ProgramID != program.ID {
		return nil, ErrCohortNotFound
	}

	// 1. Existing instance wins
	instance, err := s.instanceRepo.GetByCohort(ctx, program.ID, cohort.ID)
	if err == nil {
		return instance, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up instance for cohort %s: %w", cohort.ID.Hex(), err)
	}

	// 2. Template weeks: embedded first, legacy collection as fallback
	templateWeeks := program.Weeks
	if len(templateWeeks) == 0 {
		legacy, err := s.legacyRepo.ListByProgram(ctx, program.ID)
		if err != nil {
			return nil, fmt.Errorf("loading legacy weeks for program %s: %w", program.ID.Hex(), err)
		}
		for _, w := range legacy {
			templateWeeks = append(templateWeeks, w.Template())
		}
	}

	// 3. Build and store; a concurrent creator may have won, in which case its
	// instance is returned instead.
	built, err := BuildCohortInstance(program, cohort, templateWeeks, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	stored, err := s.instanceRepo.CreateForCohort(ctx, built)
	if err != nil {
		return nil, fmt.Errorf("creating instance for cohort %s: %w", cohort.ID.Hex(), err)
	}
	if stored.ID == built.ID {
		s.metrics.InstanceCreated()
		s.logger.Info("Program instance created",
			zap.String("programId", program.ID.Hex()),
			zap.String("cohortId", cohort.ID.Hex()),
			zap.String("instanceId", stored.ID.Hex()),
			zap.Int("weeks", len(stored.Weeks)),
		)
	}
	return stored, nil
}

// BuildCohortInstance lays the template weeks out onto contiguous day ranges and
// returns an unsaved instance for the cohort. Days start empty; each week keeps its
// own task templates with missing ids filled in.
func BuildCohortInstance(program *domain.Program, cohort *domain.ProgramCohort, templateWeeks []domain.ProgramWeek, now time.Time) (*domain.ProgramInstance, error) {
	cohortID := cohort.ID
	instance := &domain.ProgramInstance{
		ProgramID:       program.ID,
		CohortID:        &cohortID,
		OrganizationID:  program.OrganizationID,
		Type:            program.Type,
		IncludeWeekends: program.IncludeWeekends,
		Weeks:           make([]domain.InstanceWeek, 0, len(templateWeeks)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for i, tw := range orderedTemplateWeeks(templateWeeks) {
		start, end := WeekDayRange(i, program.DaysPerWeek(), program.LengthDays)
		week := instanceWeekFromTemplate(tw)
		week.StartDayIndex = start
		week.EndDayIndex = end
		if week.ID == "" {
			week.ID = uuid.NewString()
		}
		if week.WeekNumber == 0 {
			week.WeekNumber = i + 1
		}
		for day := start; day <= end; day++ {
			d := domain.InstanceDay{
				DayIndex: day,
				Tasks:    []domain.TemplateTask{},
				Habits:   []domain.HabitTemplate{},
			}
			if cohort.StartDate != "" {
				date, err := CalendarDateForDay(cohort.StartDate, day, program.IncludeWeekends)
				if err != nil {
					return nil, fmt.Errorf("%w: cohort start date must be YYYY-MM-DD", ErrValidation)
				}
				d.CalendarDate = date
			}
			week.Days = append(week.Days, d)
		}
		instance.Weeks = append(instance.Weeks, week)
	}
	return instance, nil
}

func instanceWeekFromTemplate(tw domain.ProgramWeek) domain.InstanceWeek {
	return domain.InstanceWeek{
		ID:                  tw.ID,
		WeekNumber:          tw.WeekNumber,
		ModuleID:            tw.ModuleID,
		Order:               tw.Order,
		Name:                tw.Name,
		Theme:               tw.Theme,
		Description:         tw.Description,
		Tasks:               NormalizeTemplateTasks(tw.Tasks),
		Days:                []domain.InstanceDay{},
		CurrentFocus:        tw.CurrentFocus,
		Notes:               tw.Notes,
		ManualNotes:         tw.ManualNotes,
		CoachRecordingURL:   tw.CoachRecordingURL,
		CoachRecordingNotes: tw.CoachRecordingNotes,
		LinkedCallEventIDs:  tw.LinkedCallEventIDs,
		LinkedSummaryIDs:    tw.LinkedSummaryIDs,
		WeeklyHabits:        tw.WeeklyHabits,
		WeeklyPrompt:        tw.WeeklyPrompt,
		Distribution:        tw.Distribution,
	}
}
