package repository

import (
	"alcyxob/coaching-platform/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate document")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProgramRepository reads and writes coach-authored program templates.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
}

// LegacyWeekRepository reads the old per-program program_weeks collection.
type LegacyWeekRepository interface {
	// ListByProgram returns the program's weeks ordered by week number.
	ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.LegacyProgramWeek, error)
}

// CohortRepository manages program cohorts.
type CohortRepository interface {
	Create(ctx context.Context, cohort *domain.ProgramCohort) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramCohort, error)
	ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramCohort, error)
	// ListByStatus returns cohorts in any of the given statuses, across organizations.
	ListByStatus(ctx context.Context, statuses []domain.CohortStatus) ([]domain.ProgramCohort, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.CohortStatus) error
	IncrementEnrollment(ctx context.Context, id primitive.ObjectID, delta int) error
}

// InstanceRepository manages materialised program instances.
type InstanceRepository interface {
	GetByCohort(ctx context.Context, programID, cohortID primitive.ObjectID) (*domain.ProgramInstance, error)
	// CreateForCohort inserts the instance unless one already exists for its
	// (programId, cohortId) pair, and returns whichever instance is stored.
	CreateForCohort(ctx context.Context, instance *domain.ProgramInstance) (*domain.ProgramInstance, error)
	// UpdateWeeks rewrites the whole weeks array in a single update.
	UpdateWeeks(ctx context.Context, id primitive.ObjectID, weeks []domain.InstanceWeek) error
}

// EnrollmentRepository manages program enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.ProgramEnrollment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramEnrollment, error)
	ListByProgram(ctx context.Context, programID primitive.ObjectID, statuses []domain.EnrollmentStatus) ([]domain.ProgramEnrollment, error)
	ListByCohort(ctx context.Context, cohortID primitive.ObjectID, statuses []domain.EnrollmentStatus) ([]domain.ProgramEnrollment, error)
}

// TaskRepository manages per-user task documents.
type TaskRepository interface {
	// ListForInstanceDay returns the user's program tasks for one instance day.
	ListForInstanceDay(ctx context.Context, userID string, instanceID primitive.ObjectID, dayIndex int) ([]domain.Task, error)
	// ApplyBatch commits all writes of one member-day atomically.
	ApplyBatch(ctx context.Context, batch domain.TaskBatch) error
}

// ClientWeekRepository manages clients' personal week copies for individual programs.
type ClientWeekRepository interface {
	ListByEnrollment(ctx context.Context, enrollmentID primitive.ObjectID) ([]domain.ClientProgramWeek, error)
	// ApplyBatch commits all writes of one enrollment atomically.
	ApplyBatch(ctx context.Context, batch domain.ClientWeekBatch) error
}

// HabitRepository manages member habits.
type HabitRepository interface {
	ListByUserAndProgram(ctx context.Context, userID string, programID primitive.ObjectID) ([]domain.Habit, error)
	ApplyBatch(ctx context.Context, batch domain.HabitBatch) error
}

// DiscoverEventRepository manages discover-page events.
type DiscoverEventRepository interface {
	Create(ctx context.Context, event *domain.DiscoverEvent) (primitive.ObjectID, error)
	ListByOrganization(ctx context.Context, organizationID string, startingAfter *time.Time) ([]domain.DiscoverEvent, error)
}
