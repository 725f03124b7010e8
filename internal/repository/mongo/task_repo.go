package mongo

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTaskRepository implements repository.TaskRepository
type mongoTaskRepository struct {
	collection *mongo.Collection
	tx         txRunner
}

// NewMongoTaskRepository creates a new Task repository backed by MongoDB.
// useTransactions requires a replica set or sharded cluster.
func NewMongoTaskRepository(db *mongo.Database, useTransactions bool) repository.TaskRepository {
	return &mongoTaskRepository{
		collection: db.Collection(taskCollectionName),
		tx:         newTxRunner(db, useTransactions),
	}
}

// ListForInstanceDay retrieves a user's tasks for one day of a program instance.
func (r *mongoTaskRepository) ListForInstanceDay(ctx context.Context, userID string, instanceID primitive.ObjectID, dayIndex int) ([]domain.Task, error) {
	var tasks []domain.Task
	filter := bson.M{
		"userId":     userID,
		"instanceId": instanceID,
		"dayIndex":   dayIndex,
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ApplyBatch writes one member-day's creates, updates and deletes as a single
// ordered bulk write. The write is atomic only when transactions are enabled; without
// them a failure part-way keeps the writes before it.
func (r *mongoTaskRepository) ApplyBatch(ctx context.Context, batch domain.TaskBatch) error {
	if batch.Empty() {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(batch.Creates)+len(batch.Updates)+len(batch.Deletes))

	for i := range batch.Creates {
		task := batch.Creates[i]
		if task.ID == primitive.NilObjectID {
			task.ID = primitive.NewObjectID()
		}
		task.CreatedAt = now
		task.UpdatedAt = now
		models = append(models, mongo.NewInsertOneModel().SetDocument(task))
	}

	for _, u := range batch.Updates {
		models = append(models, mongo.NewUpdateOneModel().SetFilter(bson.M{"_id": u.ID}).SetUpdate(displayUpdate(u, now)))
	}

	for _, id := range batch.Deletes {
		models = append(models, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
	}

	return r.tx.run(ctx, func(ctx context.Context) error {
		_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
		return err
	})
}

// displayUpdate builds the update for a synced task's display fields. completed and
// completedAt are never part of it.
func displayUpdate(u domain.TaskDisplayUpdate, now time.Time) bson.M {
	set := bson.M{
		"label":     u.Label,
		"isPrimary": u.IsPrimary,
		"type":      u.Type,
		"notes":     u.Notes,
		"tag":       u.Tag,
		"date":      u.Date,
		"order":     u.Order,
		"updatedAt": now,
	}
	update := bson.M{"$set": set}
	if u.EstimatedMinutes != nil {
		set["estimatedMinutes"] = *u.EstimatedMinutes
	} else {
		update["$unset"] = bson.M{"estimatedMinutes": ""}
	}
	return update
}

func taskIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// Sync lookup: a member's tasks for one instance day
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "instanceId", Value: 1},
				{Key: "dayIndex", Value: 1},
				{Key: "instanceTaskId", Value: 1},
			},
			Options: options.Index(),
		},
		{
			// Member's daily task list
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}
}
