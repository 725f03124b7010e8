package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/metrics"
	"alcyxob/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMemberConcurrency bounds how many members are synced at once.
const DefaultMemberConcurrency = 8

// SyncTarget identifies the cohort instance whose members are synced.
type SyncTarget struct {
	InstanceID     primitive.ObjectID
	ProgramID      primitive.ObjectID
	CohortID       primitive.ObjectID
	OrganizationID string
}

// DaySync is one instance day to propagate: its ordered task templates and, for
// cohorts with a start date, its calendar date.
type DaySync struct {
	DayIndex     int
	Tasks        []domain.TemplateTask
	CalendarDate string
}

// DaySyncInput is a single-day sync request.
type DaySyncInput struct {
	SyncTarget
	DaySync
}

// SyncCounts summarises the writes made by a member sync.
type SyncCounts struct {
	MembersSynced int `json:"membersSynced"`
	DaysSynced    int `json:"daysSynced"`
	TasksCreated  int `json:"tasksCreated"`
	TasksUpdated  int `json:"tasksUpdated"`
	TasksDeleted  int `json:"tasksDeleted"`
}

func (c *SyncCounts) add(o SyncCounts) {
	c.MembersSynced += o.MembersSynced
	c.DaysSynced += o.DaysSynced
	c.TasksCreated += o.TasksCreated
	c.TasksUpdated += o.TasksUpdated
	c.TasksDeleted += o.TasksDeleted
}

// MemberSyncService keeps members' personal task documents in line with instance days.
type MemberSyncService interface {
	// SyncDayTasks reconciles one day for every active or upcoming cohort member.
	SyncDayTasks(ctx context.Context, in DaySyncInput) (SyncCounts, error)
	// SyncDays reconciles several days of the same instance, loading the roster once.
	// A failing member does not stop the others; every member failure is joined into
	// the returned error and the counts cover the member-days that were committed.
	SyncDays(ctx context.Context, target SyncTarget, days []DaySync) (SyncCounts, error)
}

type memberSyncService struct {
	enrollmentRepo repository.EnrollmentRepository
	taskRepo       repository.TaskRepository
	concurrency    int
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewMemberSyncService creates a new MemberSyncService. concurrency <= 0 selects
// DefaultMemberConcurrency.
func NewMemberSyncService(
	enrollmentRepo repository.EnrollmentRepository,
	taskRepo repository.TaskRepository,
	concurrency int,
	m *metrics.Metrics,
	logger *zap.Logger,
) MemberSyncService {
	if concurrency <= 0 {
		concurrency = DefaultMemberConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &memberSyncService{
		enrollmentRepo: enrollmentRepo,
		taskRepo:       taskRepo,
		concurrency:    concurrency,
		metrics:        m,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *memberSyncService) SyncDayTasks(ctx context.Context, in DaySyncInput) (SyncCounts, error) {
	return s.SyncDays(ctx, in.SyncTarget, []DaySync{in.DaySync})
}

func (s *memberSyncService) SyncDays(ctx context.Context, target SyncTarget, days []DaySync) (SyncCounts, error) {
	var total SyncCounts
	if len(days) == 0 {
		return total, nil
	}

	members, err := s.cohortMembers(ctx, target.CohortID)
	if err != nil {
		return total, err
	}
	if len(members) == 0 {
		s.logger.Debug("No members to sync", zap.String("cohortId", target.CohortID.Hex()))
		return total, nil
	}

	// Members are independent: a failing member is recorded and the rest still sync.
	var (
		mu       sync.Mutex
		failures []error
	)
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, userID := range members {
		userID := userID
		g.Go(func() error {
			var member SyncCounts
			for _, day := range days {
				err := ctx.Err()
				if err == nil {
					var counts SyncCounts
					counts, err = s.syncMemberDay(ctx, target, userID, day)
					member.add(counts)
				}
				if err != nil {
					s.metrics.MemberSyncError()
					mu.Lock()
					total.add(member)
					failures = append(failures, fmt.Errorf("syncing day %d for user %s: %w", day.DayIndex, userID, err))
					mu.Unlock()
					return nil
				}
			}
			member.MembersSynced = 1
			mu.Lock()
			total.add(member)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	err = errors.Join(failures...)

	s.metrics.MemberTasks(total.TasksCreated, total.TasksUpdated, total.TasksDeleted)
	fields := []zap.Field{
		zap.String("instanceId", target.InstanceID.Hex()),
		zap.String("cohortId", target.CohortID.Hex()),
		zap.Int("members", len(members)),
		zap.Int("days", len(days)),
		zap.Int("created", total.TasksCreated),
		zap.Int("updated", total.TasksUpdated),
		zap.Int("deleted", total.TasksDeleted),
	}
	if err != nil {
		s.logger.Error("Member task sync failed", append(fields, zap.Error(err))...)
		return total, err
	}
	s.logger.Info("Member task sync complete", fields...)
	return total, nil
}

func (s *memberSyncService) cohortMembers(ctx context.Context, cohortID primitive.ObjectID) ([]string, error) {
	enrollments, err := s.enrollmentRepo.ListByCohort(ctx, cohortID, domain.SyncableEnrollmentStatuses)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments for cohort %s: %w", cohortID.Hex(), err)
	}
	seen := make(map[string]bool, len(enrollments))
	members := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if e.UserID == "" || seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		members = append(members, e.UserID)
	}
	return members, nil
}

func (s *memberSyncService) syncMemberDay(ctx context.Context, target SyncTarget, userID string, day DaySync) (SyncCounts, error) {
	existing, err := s.taskRepo.ListForInstanceDay(ctx, userID, target.InstanceID, day.DayIndex)
	if err != nil {
		return SyncCounts{}, err
	}

	batch := ReconcileDayTasks(target, userID, day, existing, s.now())
	if !batch.Empty() {
		if err := s.taskRepo.ApplyBatch(ctx, batch); err != nil {
			return SyncCounts{}, err
		}
	}
	return SyncCounts{
		DaysSynced:   1,
		TasksCreated: len(batch.Creates),
		TasksUpdated: len(batch.Updates),
		TasksDeleted: len(batch.Deletes),
	}, nil
}

// ReconcileDayTasks diffs a member's existing tasks for one instance day against the
// day's templates, keyed by template id:
//   - present on both sides: display fields are updated when they differ, completion is left alone;
//   - only in the templates: a new, incomplete task is created;
//   - only in the existing tasks, or a second task for the same template: deleted.
//
// Tasks without an instanceTaskId were not created by a sync and are never touched.
// When day.CalendarDate is empty, existing task dates are kept.
func ReconcileDayTasks(target SyncTarget, userID string, day DaySync, existing []domain.Task, now time.Time) domain.TaskBatch {
	var batch domain.TaskBatch

	byTemplate := make(map[string]*domain.Task, len(existing))
	for i := range existing {
		t := &existing[i]
		if t.InstanceTaskID == "" {
			continue
		}
		if _, dup := byTemplate[t.InstanceTaskID]; dup {
			batch.Deletes = append(batch.Deletes, t.ID)
			continue
		}
		byTemplate[t.InstanceTaskID] = t
	}

	incoming := make(map[string]bool, len(day.Tasks))
	for order, tpl := range day.Tasks {
		if tpl.ID == "" || incoming[tpl.ID] {
			continue
		}
		incoming[tpl.ID] = true

		current, ok := byTemplate[tpl.ID]
		if !ok {
			batch.Creates = append(batch.Creates, newMemberTask(target, userID, day, tpl, order, now))
			continue
		}

		want := domain.TaskDisplayUpdate{
			ID:               current.ID,
			Label:            tpl.Label,
			IsPrimary:        tpl.IsPrimary,
			Type:             tpl.Type,
			EstimatedMinutes: tpl.EstimatedMinutes,
			Notes:            tpl.Notes,
			Tag:              tpl.Tag,
			Date:             day.CalendarDate,
			Order:            order,
		}
		if want.Date == "" {
			want.Date = current.Date
		}
		if displayDiffers(current, want) {
			batch.Updates = append(batch.Updates, want)
		}
	}

	for i := range existing {
		t := &existing[i]
		if t.InstanceTaskID != "" && !incoming[t.InstanceTaskID] && byTemplate[t.InstanceTaskID] == t {
			batch.Deletes = append(batch.Deletes, t.ID)
		}
	}
	return batch
}

func newMemberTask(target SyncTarget, userID string, day DaySync, tpl domain.TemplateTask, order int, now time.Time) domain.Task {
	cohortID := target.CohortID
	return domain.Task{
		UserID:           userID,
		OrganizationID:   target.OrganizationID,
		ProgramID:        target.ProgramID,
		InstanceID:       target.InstanceID,
		CohortID:         &cohortID,
		DayIndex:         day.DayIndex,
		InstanceTaskID:   tpl.ID,
		Label:            tpl.Label,
		IsPrimary:        tpl.IsPrimary,
		Type:             tpl.Type,
		EstimatedMinutes: tpl.EstimatedMinutes,
		Notes:            tpl.Notes,
		Tag:              tpl.Tag,
		Date:             day.CalendarDate,
		Order:            order,
		SourceType:       domain.TaskSourceProgram,
		Completed:        false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func displayDiffers(t *domain.Task, u domain.TaskDisplayUpdate) bool {
	return t.Label != u.Label ||
		t.IsPrimary != u.IsPrimary ||
		t.Type != u.Type ||
		!equalIntPtr(t.EstimatedMinutes, u.EstimatedMinutes) ||
		t.Notes != u.Notes ||
		t.Tag != u.Tag ||
		t.Date != u.Date ||
		t.Order != u.Order
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
