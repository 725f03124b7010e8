package mongo

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoInstanceRepository implements repository.InstanceRepository
type mongoInstanceRepository struct {
	collection *mongo.Collection
}

// NewMongoInstanceRepository creates a new ProgramInstance repository backed by MongoDB.
func NewMongoInstanceRepository(db *mongo.Database) repository.InstanceRepository {
	return &mongoInstanceRepository{
		collection: db.Collection(instanceCollectionName),
	}
}

// GetByCohort retrieves the instance of a cohort.
func (r *mongoInstanceRepository) GetByCohort(ctx context.Context, programID, cohortID primitive.ObjectID) (*domain.ProgramInstance, error) {
	var instance domain.ProgramInstance
	filter := bson.M{"programId": programID, "cohortId": cohortID}

	err := r.collection.FindOne(ctx, filter).Decode(&instance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instance, nil
}

// CreateForCohort upserts the instance with $setOnInsert so that an instance already
// stored for the same (programId, cohortId) wins. Two concurrent upserts can both miss
// and race on insert; the loser hits the unique index and re-reads the winner.
func (r *mongoInstanceRepository) CreateForCohort(ctx context.Context, instance *domain.ProgramInstance) (*domain.ProgramInstance, error) {
	if instance.CohortID == nil || *instance.CohortID == primitive.NilObjectID {
		return nil, errors.New("cohort instance requires cohortId")
	}

	if instance.ID == primitive.NilObjectID {
		instance.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	instance.CreatedAt = now
	instance.UpdatedAt = now

	onInsert, err := toSetOnInsert(instance, "programId", "cohortId")
	if err != nil {
		return nil, fmt.Errorf("encode instance: %w", err)
	}

	filter := bson.M{"programId": instance.ProgramID, "cohortId": *instance.CohortID}
	update := bson.M{"$setOnInsert": onInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.ProgramInstance
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.GetByCohort(ctx, instance.ProgramID, *instance.CohortID)
		}
		return nil, err
	}
	return &stored, nil
}

// UpdateWeeks rewrites the instance's weeks array.
func (r *mongoInstanceRepository) UpdateWeeks(ctx context.Context, id primitive.ObjectID, weeks []domain.InstanceWeek) error {
	update := bson.M{"$set": bson.M{"weeks": weeks, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// toSetOnInsert encodes v as a document minus the keys already pinned by the upsert filter.
func toSetOnInsert(v interface{}, filterKeys ...string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for _, k := range filterKeys {
		delete(doc, k)
	}
	return doc, nil
}

func instanceIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// One instance per cohort
			Keys: bson.D{{Key: "programId", Value: 1}, {Key: "cohortId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"cohortId": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "enrollmentId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
}
