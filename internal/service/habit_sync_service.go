package service

import (
	"context"
	"fmt"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/metrics"
	"alcyxob/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HabitSyncResult summarises a default-habit sync.
type HabitSyncResult struct {
	Success        SyncOutcome       `json:"success"`
	MembersSynced  int               `json:"membersSynced"`
	HabitsCreated  int               `json:"habitsCreated"`
	HabitsUpdated  int               `json:"habitsUpdated"`
	HabitsArchived int               `json:"habitsArchived"`
	Errors         []EnrollmentError `json:"errors,omitempty"`
}

// HabitSyncService seeds and refreshes members' habits from a program's default habits.
type HabitSyncService interface {
	SyncHabits(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) (*HabitSyncResult, error)
}

type habitSyncService struct {
	programRepo    repository.ProgramRepository
	enrollmentRepo repository.EnrollmentRepository
	habitRepo      repository.HabitRepository
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewHabitSyncService creates a new HabitSyncService.
func NewHabitSyncService(
	programRepo repository.ProgramRepository,
	enrollmentRepo repository.EnrollmentRepository,
	habitRepo repository.HabitRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) HabitSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &habitSyncService{
		programRepo:    programRepo,
		enrollmentRepo: enrollmentRepo,
		habitRepo:      habitRepo,
		metrics:        m,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *habitSyncService) SyncHabits(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) (*HabitSyncResult, error) {
	program, err := loadProgram(ctx, s.programRepo, caller, programID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.ListByProgram(ctx, program.ID, domain.SyncableEnrollmentStatuses)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments for program %s: %w", program.ID.Hex(), err)
	}

	result := &HabitSyncResult{}
	seen := make(map[string]bool, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		if seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true

		existing, err := s.habitRepo.ListByUserAndProgram(ctx, e.UserID, program.ID)
		if err == nil {
			batch := ReconcileHabits(program.DefaultHabits, existing, e, s.now())
			err = s.habitRepo.ApplyBatch(ctx, batch.HabitBatch)
			if err == nil {
				result.MembersSynced++
				result.HabitsCreated += len(batch.Creates)
				result.HabitsUpdated += batch.Updated
				result.HabitsArchived += batch.Archived
				continue
			}
		}
		s.logger.Warn("Habit sync failed for member",
			zap.String("programId", program.ID.Hex()),
			zap.String("enrollmentId", e.ID.Hex()),
			zap.Error(err),
		)
		result.Errors = append(result.Errors, EnrollmentError{EnrollmentID: e.ID.Hex(), Error: err.Error()})
	}

	result.Success = outcomeOf(len(result.Errors), result.MembersSynced)
	s.metrics.HabitChanges(result.HabitsCreated, result.HabitsUpdated, result.HabitsArchived)
	s.logger.Info("Habit sync finished",
		zap.String("programId", program.ID.Hex()),
		zap.Int("members", result.MembersSynced),
		zap.Int("created", result.HabitsCreated),
		zap.Int("updated", result.HabitsUpdated),
		zap.Int("archived", result.HabitsArchived),
	)
	return result, nil
}

// HabitReconciliation is a HabitBatch plus a breakdown of its replaces.
type HabitReconciliation struct {
	domain.HabitBatch
	Updated  int
	Archived int
}

// ReconcileHabits diffs a member's program habits against the program's default
// habits by template id. Missing habits are created, changed or archived ones are
// rewritten from the template, and habits whose template was removed are archived.
// Habits the member created themselves (no template id) are left alone.
func ReconcileHabits(templates []domain.HabitTemplate, existing []domain.Habit, enrollment *domain.ProgramEnrollment, now time.Time) HabitReconciliation {
	var rec HabitReconciliation

	byTemplate := make(map[string]*domain.Habit, len(existing))
	for i := range existing {
		h := &existing[i]
		if h.HabitTemplateID == "" {
			continue
		}
		if _, dup := byTemplate[h.HabitTemplateID]; !dup {
			byTemplate[h.HabitTemplateID] = h
		}
	}

	wanted := make(map[string]bool, len(templates))
	for _, tpl := range templates {
		if tpl.ID == "" || wanted[tpl.ID] {
			continue
		}
		wanted[tpl.ID] = true

		current, ok := byTemplate[tpl.ID]
		if !ok {
			rec.Creates = append(rec.Creates, domain.Habit{
				UserID:            enrollment.UserID,
				OrganizationID:    enrollment.OrganizationID,
				ProgramID:         enrollment.ProgramID,
				HabitTemplateID:   tpl.ID,
				Title:             tpl.Title,
				Description:       tpl.Description,
				Frequency:         tpl.Frequency,
				TargetRepetitions: tpl.TargetRepetitions,
				CreatedAt:         now,
				UpdatedAt:         now,
			})
			continue
		}
		if current.Archived ||
			current.Title != tpl.Title ||
			current.Description != tpl.Description ||
			current.Frequency != tpl.Frequency ||
			!equalIntPtr(current.TargetRepetitions, tpl.TargetRepetitions) {
			h := *current
			h.Title = tpl.Title
			h.Description = tpl.Description
			h.Frequency = tpl.Frequency
			h.TargetRepetitions = tpl.TargetRepetitions
			h.Archived = false
			h.UpdatedAt = now
			rec.Replaces = append(rec.Replaces, h)
			rec.Updated++
		}
	}

	for i := range existing {
		h := existing[i]
		if h.HabitTemplateID == "" || h.Archived || wanted[h.HabitTemplateID] {
			continue
		}
		h.Archived = true
		h.UpdatedAt = now
		rec.Replaces = append(rec.Replaces, h)
		rec.Archived++
	}
	return rec
}
