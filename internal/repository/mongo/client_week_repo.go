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

// mongoClientWeekRepository implements repository.ClientWeekRepository
type mongoClientWeekRepository struct {
	collection *mongo.Collection
	tx         txRunner
}

// NewMongoClientWeekRepository creates a new ClientProgramWeek repository backed by MongoDB.
func NewMongoClientWeekRepository(db *mongo.Database, useTransactions bool) repository.ClientWeekRepository {
	return &mongoClientWeekRepository{
		collection: db.Collection(clientWeekCollectionName),
		tx:         newTxRunner(db, useTransactions),
	}
}

// ListByEnrollment retrieves an enrollment's client weeks ordered by week number.
func (r *mongoClientWeekRepository) ListByEnrollment(ctx context.Context, enrollmentID primitive.ObjectID) ([]domain.ClientProgramWeek, error) {
	var weeks []domain.ClientProgramWeek
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"enrollmentId": enrollmentID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

// ApplyBatch inserts new client weeks and replaces merged ones in one ordered bulk
// write, atomic only when transactions are enabled.
func (r *mongoClientWeekRepository) ApplyBatch(ctx context.Context, batch domain.ClientWeekBatch) error {
	if len(batch.Creates) == 0 && len(batch.Replaces) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(batch.Creates)+len(batch.Replaces))

	for i := range batch.Creates {
		week := batch.Creates[i]
		if week.ID == primitive.NilObjectID {
			week.ID = primitive.NewObjectID()
		}
		week.CreatedAt = now
		week.UpdatedAt = now
		models = append(models, mongo.NewInsertOneModel().SetDocument(week))
	}

	for i := range batch.Replaces {
		week := batch.Replaces[i]
		if week.ID == primitive.NilObjectID {
			return errors.New("client week replace requires an ID")
		}
		week.UpdatedAt = now
		models = append(models, mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": week.ID}).SetReplacement(week))
	}

	return r.tx.run(ctx, func(ctx context.Context) error {
		result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
		if err != nil {
			return err
		}
		if result.MatchedCount < int64(len(batch.Replaces)) {
			return repository.ErrUpdateFailed
		}
		return nil
	})
}

func clientWeekIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "enrollmentId", Value: 1}, {Key: "programWeekId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	}
}
