package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateProgramInput is a coach's new program.
type CreateProgramInput struct {
	Name            string
	Description     string
	Type            domain.ProgramType
	LengthDays      int
	IncludeWeekends bool
	SquadCapacity   *int
	DefaultHabits   []domain.HabitTemplate
	Weeks           []domain.ProgramWeek
}

// CreateCohortInput schedules a run of a group program. Dates are YYYY-MM-DD.
type CreateCohortInput struct {
	Name          string
	StartDate     string
	EndDate       string
	MaxEnrollment *int
}

// EnrollInput enrolls a user in a program. CohortID is required for group programs.
type EnrollInput struct {
	UserID        string
	CohortID      string
	SquadID       string
	PaymentStatus string
	AmountPaid    int64
}

// ProgramService manages programs, cohorts and enrollments.
type ProgramService interface {
	CreateProgram(ctx context.Context, caller domain.Caller, input CreateProgramInput) (*domain.Program, error)
	GetProgram(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) (*domain.Program, error)
	CreateCohort(ctx context.Context, caller domain.Caller, programID primitive.ObjectID, input CreateCohortInput) (*domain.ProgramCohort, error)
	ListCohorts(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) ([]domain.ProgramCohort, error)
	Enroll(ctx context.Context, caller domain.Caller, programID primitive.ObjectID, input EnrollInput) (*domain.ProgramEnrollment, error)
	ListEnrollments(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) ([]domain.ProgramEnrollment, error)
}

type programService struct {
	programRepo    repository.ProgramRepository
	cohortRepo     repository.CohortRepository
	enrollmentRepo repository.EnrollmentRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewProgramService creates a new ProgramService.
func NewProgramService(
	programRepo repository.ProgramRepository,
	cohortRepo repository.CohortRepository,
	enrollmentRepo repository.EnrollmentRepository,
	logger *zap.Logger,
) ProgramService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &programService{
		programRepo:    programRepo,
		cohortRepo:     cohortRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// === Programs ===

func (s *programService) CreateProgram(ctx context.Context, caller domain.Caller, input CreateProgramInput) (*domain.Program, error) {
	if !caller.IsStaff() || caller.OrganizationID == "" {
		return nil, ErrForbidden
	}

	// 1. Validate
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	switch input.Type {
	case domain.ProgramTypeGroup, domain.ProgramTypeIndividual:
	default:
		return nil, validationError("type must be group or individual")
	}
	if input.LengthDays < 0 {
		return nil, validationError("lengthDays must not be negative")
	}
	if input.SquadCapacity != nil && (*input.SquadCapacity < 1 || input.Type != domain.ProgramTypeGroup) {
		return nil, validationError("squadCapacity must be positive and only applies to group programs")
	}
	for _, w := range input.Weeks {
		if err := ValidateTemplateTasks(w.Tasks); err != nil {
			return nil, err
		}
		if !w.Distribution.Valid() {
			return nil, validationError(fmt.Sprintf("unknown distribution %q", w.Distribution))
		}
	}

	// 2. Normalise week and habit ids
	weeks := make([]domain.ProgramWeek, len(input.Weeks))
	for i, w := range input.Weeks {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		if w.WeekNumber == 0 {
			w.WeekNumber = i + 1
		}
		w.Tasks = NormalizeTemplateTasks(w.Tasks)
		weeks[i] = w
	}
	habits := make([]domain.HabitTemplate, len(input.DefaultHabits))
	for i, h := range input.DefaultHabits {
		if strings.TrimSpace(h.Title) == "" {
			return nil, validationError("habit title is required")
		}
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		habits[i] = h
	}

	// 3. Store
	program := &domain.Program{
		OrganizationID:  caller.OrganizationID,
		CoachID:         caller.UserID,
		Name:            name,
		Description:     input.Description,
		Type:            input.Type,
		LengthDays:      input.LengthDays,
		IncludeWeekends: input.IncludeWeekends,
		SquadCapacity:   input.SquadCapacity,
		DefaultHabits:   habits,
		Weeks:           weeks,
	}
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}
	program.ID = id
	s.logger.Info("Program created", zap.String("programId", id.Hex()), zap.String("organizationId", caller.OrganizationID))
	return program, nil
}

func (s *programService) GetProgram(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) (*domain.Program, error) {
	return loadProgram(ctx, s.programRepo, caller, programID)
}

// === Cohorts ===

func (s *programService) CreateCohort(ctx context.Context, caller domain.Caller, programID primitive.ObjectID, input CreateCohortInput) (*domain.ProgramCohort, error) {
	program, err := loadProgram(ctx, s.programRepo, caller, programID)
	if err != nil {
		return nil, err
	}
	if !program.IsGroup() {
		return nil, validationError("cohorts can only be scheduled for group programs")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.MaxEnrollment != nil && *input.MaxEnrollment < 1 {
		return nil, validationError("maxEnrollment must be positive")
	}

	cohort := &domain.ProgramCohort{
		ProgramID:      program.ID,
		OrganizationID: program.OrganizationID,
		Name:           name,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		MaxEnrollment:  input.MaxEnrollment,
	}
	cohort.Status = cohort.StatusAt(s.now())
	id, err := s.cohortRepo.Create(ctx, cohort)
	if err != nil {
		return nil, fmt.Errorf("creating cohort: %w", err)
	}
	cohort.ID = id
	s.logger.Info("Cohort created",
		zap.String("programId", program.ID.Hex()),
		zap.String("cohortId", id.Hex()),
		zap.String("status", string(cohort.Status)),
	)
	return cohort, nil
}

func (s *programService) ListCohorts(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) ([]domain.ProgramCohort, error) {
	program, err := loadProgram(ctx, s.programRepo, caller, programID)
	if err != nil {
		return nil, err
	}
	cohorts, err := s.cohortRepo.ListByProgram(ctx, program.ID)
	if err != nil {
		return nil, fmt.Errorf("listing cohorts: %w", err)
	}
	if cohorts == nil {
		cohorts = []domain.ProgramCohort{}
	}
	return cohorts, nil
}

// validateDateRange checks two YYYY-MM-DD dates with end not before start.
func validateDateRange(start, end string) error {
	s, err := time.Parse(domain.DateLayout, start)
	if err != nil {
		return validationError("startDate must be YYYY-MM-DD")
	}
	e, err := time.Parse(domain.DateLayout, end)
	if err != nil {
		return validationError("endDate must be YYYY-MM-DD")
	}
	if e.Before(s) {
		return validationError("endDate must not be before startDate")
	}
	return nil
}

// === Enrollments ===

func (s *programService) Enroll(ctx context.Context, caller domain.Caller, programID primitive.ObjectID, input EnrollInput) (*domain.ProgramEnrollment, error) {
	program, err := loadProgram(ctx, s.programRepo, caller, programID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, validationError("userId is required")
	}

	now := s.now()
	enrollment := &domain.ProgramEnrollment{
		UserID:         input.UserID,
		ProgramID:      program.ID,
		SquadID:        input.SquadID,
		OrganizationID: program.OrganizationID,
		Status:         domain.EnrollmentActive,
		PaymentStatus:  input.PaymentStatus,
		AmountPaid:     input.AmountPaid,
	}

	var cohort *domain.ProgramCohort
	if program.IsGroup() {
		if input.CohortID == "" {
			return nil, validationError("cohortId is required for group programs")
		}
		cohortID, err := primitive.ObjectIDFromHex(input.CohortID)
		if err != nil {
			return nil, validationError("cohortId is not a valid id")
		}
		cohort, err = loadCohort(ctx, s.cohortRepo, caller, cohortID)
		if err != nil {
			return nil, err
		}
		if cohort.ProgramID != program.ID {
			return nil, ErrCohortNotFound
		}
		switch cohort.StatusAt(now) {
		case domain.CohortCompleted, domain.CohortArchived:
			return nil, validationError("cohort is no longer open for enrollment")
		case domain.CohortUpcoming:
			enrollment.Status = domain.EnrollmentUpcoming
		}
		if cohort.MaxEnrollment != nil && cohort.CurrentEnrollment >= *cohort.MaxEnrollment {
			return nil, ErrCohortFull
		}
		enrollment.CohortID = &cohort.ID
	}
	if enrollment.Status == domain.EnrollmentActive {
		enrollment.StartedAt = &now
	}

	id, err := s.enrollmentRepo.Create(ctx, enrollment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("creating enrollment: %w", err)
	}
	enrollment.ID = id

	if cohort != nil {
		if err := s.cohortRepo.IncrementEnrollment(ctx, cohort.ID, 1); err != nil {
			// The enrollment stands; the counter is advisory.
			s.logger.Error("Failed to increment cohort enrollment",
				zap.String("cohortId", cohort.ID.Hex()),
				zap.Error(err),
			)
		}
	}
	s.logger.Info("User enrolled",
		zap.String("programId", program.ID.Hex()),
		zap.String("enrollmentId", id.Hex()),
		zap.String("userId", input.UserID),
		zap.String("status", string(enrollment.Status)),
	)
	return enrollment, nil
}

func (s *programService) ListEnrollments(ctx context.Context, caller domain.Caller, programID primitive.ObjectID) ([]domain.ProgramEnrollment, error) {
	program, err := loadProgram(ctx, s.programRepo, caller, programID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.ListByProgram(ctx, program.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	if enrollments == nil {
		enrollments = []domain.ProgramEnrollment{}
	}
	return enrollments, nil
}
