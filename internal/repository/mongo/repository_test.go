package mongo

import (
	"context"
	"testing"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestInstanceRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "coaching." + instanceCollectionName
	ctx := context.Background()

	mt.Run("GetByCohort not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewMongoInstanceRepository(mt.DB)

		_, err := repo.GetByCohort(ctx, primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("CreateForCohort returns the stored instance", func(mt *mtest.T) {
		programID, cohortID, winnerID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		stored := bson.D{
			{Key: "_id", Value: winnerID},
			{Key: "programId", Value: programID},
			{Key: "cohortId", Value: cohortID},
			{Key: "weeks", Value: bson.A{bson.D{{Key: "id", Value: "w1"}, {Key: "weekNumber", Value: 1}}}},
		}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: stored}))
		repo := NewMongoInstanceRepository(mt.DB)

		got, err := repo.CreateForCohort(ctx, &domain.ProgramInstance{ProgramID: programID, CohortID: &cohortID})
		require.NoError(mt, err)
		assert.Equal(mt, winnerID, got.ID)
		require.Len(mt, got.Weeks, 1)
		assert.Equal(mt, "w1", got.Weeks[0].ID)
	})

	mt.Run("CreateForCohort re-reads after losing the insert race", func(mt *mtest.T) {
		programID, cohortID, winnerID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: winnerID},
				{Key: "programId", Value: programID},
				{Key: "cohortId", Value: cohortID},
			}),
		)
		repo := NewMongoInstanceRepository(mt.DB)

		got, err := repo.CreateForCohort(ctx, &domain.ProgramInstance{ProgramID: programID, CohortID: &cohortID})
		require.NoError(mt, err)
		assert.Equal(mt, winnerID, got.ID)
	})

	mt.Run("CreateForCohort requires a cohort", func(mt *mtest.T) {
		repo := NewMongoInstanceRepository(mt.DB)

		_, err := repo.CreateForCohort(ctx, &domain.ProgramInstance{ProgramID: primitive.NewObjectID()})
		assert.Error(mt, err)
	})

	mt.Run("UpdateWeeks on a missing instance", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		repo := NewMongoInstanceRepository(mt.DB)

		err := repo.UpdateWeeks(ctx, primitive.NewObjectID(), nil)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestEnrollmentRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	newEnrollment := func() *domain.ProgramEnrollment {
		return &domain.ProgramEnrollment{UserID: "user-1", ProgramID: primitive.NewObjectID(), OrganizationID: "org-1"}
	}

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoEnrollmentRepository(mt.DB)
		enrollment := newEnrollment()

		id, err := repo.Create(ctx, enrollment)
		require.NoError(mt, err)
		assert.Equal(mt, enrollment.ID, id)
		assert.Equal(mt, domain.EnrollmentUpcoming, enrollment.Status)
		assert.False(mt, enrollment.CreatedAt.IsZero())
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		repo := NewMongoEnrollmentRepository(mt.DB)

		_, err := repo.Create(ctx, newEnrollment())
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		repo := NewMongoEnrollmentRepository(mt.DB)

		_, err := repo.Create(ctx, &domain.ProgramEnrollment{ProgramID: primitive.NewObjectID()})
		assert.Error(mt, err)
	})
}

func TestDisplayUpdate(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	minutes := 15

	withEstimate := displayUpdate(domain.TaskDisplayUpdate{ID: primitive.NewObjectID(), Label: "Walk", Type: "task", Date: "2024-03-04", Order: 2, EstimatedMinutes: &minutes}, now)
	assert.Equal(t, bson.M{
		"$set": bson.M{
			"label":            "Walk",
			"isPrimary":        false,
			"type":             "task",
			"notes":            "",
			"tag":              "",
			"date":             "2024-03-04",
			"order":            2,
			"updatedAt":        now,
			"estimatedMinutes": 15,
		},
	}, withEstimate)

	withoutEstimate := displayUpdate(domain.TaskDisplayUpdate{Label: "Walk"}, now)
	assert.Equal(t, bson.M{"estimatedMinutes": ""}, withoutEstimate["$unset"])
	for _, op := range []string{"$set", "$unset"} {
		fields := withoutEstimate[op].(bson.M)
		assert.NotContains(t, fields, "completed", op)
		assert.NotContains(t, fields, "completedAt", op)
	}
}

func TestTaskRepository_ApplyBatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("empty batch writes nothing", func(mt *mtest.T) {
		repo := NewMongoTaskRepository(mt.DB, false)
		assert.NoError(mt, repo.ApplyBatch(ctx, domain.TaskBatch{}))
	})

	mt.Run("bulk write", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}, bson.E{Key: "nModified", Value: 1}))
		repo := NewMongoTaskRepository(mt.DB, false)

		err := repo.ApplyBatch(ctx, domain.TaskBatch{
			Creates: []domain.Task{{UserID: "user-1", InstanceTaskID: "a", Label: "A"}},
			Updates: []domain.TaskDisplayUpdate{{ID: primitive.NewObjectID(), Label: "B"}},
			Deletes: []primitive.ObjectID{primitive.NewObjectID()},
		})
		assert.NoError(mt, err)
	})
}

func TestSupportsTransactions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	tests := []struct {
		name  string
		reply []bson.E
		want  bool
	}{
		{name: "replica set member", reply: []bson.E{{Key: "isWritablePrimary", Value: true}, {Key: "setName", Value: "rs0"}}, want: true},
		{name: "mongos", reply: []bson.E{{Key: "isWritablePrimary", Value: true}, {Key: "msg", Value: "isdbgrid"}}, want: true},
		{name: "standalone", reply: []bson.E{{Key: "isWritablePrimary", Value: true}}, want: false},
	}
	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(mtest.CreateSuccessResponse(tt.reply...))

			got, err := SupportsTransactions(ctx, mt.Client)
			require.NoError(mt, err)
			assert.Equal(mt, tt.want, got)
		})
	}
}
