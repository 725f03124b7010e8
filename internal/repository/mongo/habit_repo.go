package mongo

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoHabitRepository implements repository.HabitRepository
type mongoHabitRepository struct {
	collection *mongo.Collection
	tx         txRunner
}

// NewMongoHabitRepository creates a new Habit repository backed by MongoDB.
func NewMongoHabitRepository(db *mongo.Database, useTransactions bool) repository.HabitRepository {
	return &mongoHabitRepository{
		collection: db.Collection(habitCollectionName),
		tx:         newTxRunner(db, useTransactions),
	}
}

// ListByUserAndProgram retrieves the habits a program seeded for a user, archived ones included.
func (r *mongoHabitRepository) ListByUserAndProgram(ctx context.Context, userID string, programID primitive.ObjectID) ([]domain.Habit, error) {
	var habits []domain.Habit
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID, "programId": programID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// ApplyBatch writes one member's habit changes in one ordered bulk write, atomic only
// when transactions are enabled.
func (r *mongoHabitRepository) ApplyBatch(ctx context.Context, batch domain.HabitBatch) error {
	if len(batch.Creates) == 0 && len(batch.Replaces) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(batch.Creates)+len(batch.Replaces))
	for i := range batch.Creates {
		habit := batch.Creates[i]
		if habit.ID == primitive.NilObjectID {
			habit.ID = primitive.NewObjectID()
		}
		habit.CreatedAt = now
		habit.UpdatedAt = now
		models = append(models, mongo.NewInsertOneModel().SetDocument(habit))
	}
	for i := range batch.Replaces {
		habit := batch.Replaces[i]
		if habit.ID == primitive.NilObjectID {
			return errors.New("habit replace requires an ID")
		}
		habit.UpdatedAt = now
		models = append(models, mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": habit.ID}).SetReplacement(habit))
	}

	return r.tx.run(ctx, func(ctx context.Context) error {
		_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
		return err
	})
}

func habitIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "programId", Value: 1}, {Key: "habitTemplateId", Value: 1}},
			Options: options.Index(),
		},
	}
}
