package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/coaching-platform/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReconcileHabits(t *testing.T) {
	programID := primitive.NewObjectID()
	enrollment := &domain.ProgramEnrollment{UserID: "u1", ProgramID: programID, OrganizationID: testOrg}
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	templates := []domain.HabitTemplate{
		{ID: "water", Title: "Drink water", Frequency: "daily"},
		{ID: "walk", Title: "Walk 10k steps", Frequency: "daily", TargetRepetitions: intPtr(5)},
		{ID: "sleep", Title: "Sleep by 11", Frequency: "daily"},
		{ID: "new", Title: "Stretch", Frequency: "weekday"},
	}
	existing := []domain.Habit{
		{ID: primitive.NewObjectID(), HabitTemplateID: "water", Title: "Drink water", Frequency: "daily"},
		{ID: primitive.NewObjectID(), HabitTemplateID: "walk", Title: "Walk", Frequency: "daily", TargetRepetitions: intPtr(5)},
		{ID: primitive.NewObjectID(), HabitTemplateID: "sleep", Title: "Sleep by 11", Frequency: "daily", Archived: true},
		{ID: primitive.NewObjectID(), HabitTemplateID: "gone", Title: "Old habit"},
		{ID: primitive.NewObjectID(), Title: "Member's own"},
	}

	rec := ReconcileHabits(templates, existing, enrollment, now)

	require.Len(t, rec.Creates, 1)
	created := rec.Creates[0]
	assert.Equal(t, "new", created.HabitTemplateID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, programID, created.ProgramID)
	assert.Equal(t, testOrg, created.OrganizationID)
	assert.False(t, created.Archived)

	assert.Equal(t, 2, rec.Updated, "walk changed and sleep is revived")
	assert.Equal(t, 1, rec.Archived)
	require.Len(t, rec.Replaces, 3)

	byTemplate := map[string]domain.Habit{}
	for _, h := range rec.Replaces {
		byTemplate[h.HabitTemplateID] = h
	}
	assert.Equal(t, "Walk 10k steps", byTemplate["walk"].Title)
	assert.Equal(t, existing[1].ID, byTemplate["walk"].ID)
	assert.False(t, byTemplate["sleep"].Archived)
	assert.True(t, byTemplate["gone"].Archived)
	assert.NotContains(t, byTemplate, "water")
	assert.NotContains(t, byTemplate, "")
}

func TestReconcileHabits_NothingToDo(t *testing.T) {
	enrollment := &domain.ProgramEnrollment{UserID: "u1"}
	templates := []domain.HabitTemplate{{ID: "water", Title: "Drink water"}}
	existing := []domain.Habit{{ID: primitive.NewObjectID(), HabitTemplateID: "water", Title: "Drink water"}}

	rec := ReconcileHabits(templates, existing, enrollment, time.Now())
	assert.Empty(t, rec.Creates)
	assert.Empty(t, rec.Replaces)
}

func TestSyncHabits(t *testing.T) {
	p := groupProgram()
	p.DefaultHabits = []domain.HabitTemplate{{ID: "water", Title: "Drink water"}, {ID: "walk", Title: "Walk"}}
	c := cohortOf(p, "2024-01-01")
	enrollments := &fakeEnrollmentRepo{enrollments: []domain.ProgramEnrollment{
		member(p, c, "u1", domain.EnrollmentActive),
		member(p, c, "u2", domain.EnrollmentUpcoming),
		member(p, c, "u3", domain.EnrollmentCompleted),
	}}
	habits := newFakeHabitRepo(domain.Habit{UserID: "u1", ProgramID: p.ID, HabitTemplateID: "old", Title: "Old"})
	svc := NewHabitSyncService(newFakeProgramRepo(p), enrollments, habits, nil, nil)

	res, err := svc.SyncHabits(context.Background(), coach, p.ID)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, res.Success)
	assert.Equal(t, 2, res.MembersSynced)
	assert.Equal(t, 4, res.HabitsCreated)
	assert.Equal(t, 1, res.HabitsArchived)
	assert.Zero(t, res.HabitsUpdated)

	again, err := svc.SyncHabits(context.Background(), coach, p.ID)
	require.NoError(t, err)
	assert.Zero(t, again.HabitsCreated+again.HabitsUpdated+again.HabitsArchived)
}

func TestSyncHabits_PartialFailure(t *testing.T) {
	p := groupProgram()
	p.DefaultHabits = []domain.HabitTemplate{{ID: "water", Title: "Drink water"}}
	c := cohortOf(p, "2024-01-01")
	broken := member(p, c, "u2", domain.EnrollmentActive)
	enrollments := &fakeEnrollmentRepo{enrollments: []domain.ProgramEnrollment{
		member(p, c, "u1", domain.EnrollmentActive),
		broken,
	}}
	habits := newFakeHabitRepo()
	habits.failUsers["u2"] = errors.New("not primary")
	svc := NewHabitSyncService(newFakeProgramRepo(p), enrollments, habits, nil, nil)

	res, err := svc.SyncHabits(context.Background(), coach, p.ID)
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, res.Success)
	assert.Equal(t, 1, res.MembersSynced)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, broken.ID.Hex(), res.Errors[0].EnrollmentID)
}

func TestSyncHabits_Forbidden(t *testing.T) {
	p := groupProgram()
	svc := NewHabitSyncService(newFakeProgramRepo(p), &fakeEnrollmentRepo{}, newFakeHabitRepo(), nil, nil)

	_, err := svc.SyncHabits(context.Background(), domain.Caller{UserID: "m", OrganizationID: testOrg, Role: domain.RoleMember}, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
