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

// mongoCohortRepository implements repository.CohortRepository
type mongoCohortRepository struct {
	collection *mongo.Collection
}

// NewMongoCohortRepository creates a new ProgramCohort repository backed by MongoDB.
func NewMongoCohortRepository(db *mongo.Database) repository.CohortRepository {
	return &mongoCohortRepository{
		collection: db.Collection(cohortCollectionName),
	}
}

// Create inserts a new cohort.
func (r *mongoCohortRepository) Create(ctx context.Context, cohort *domain.ProgramCohort) (primitive.ObjectID, error) {
	if cohort.ProgramID == primitive.NilObjectID || cohort.OrganizationID == "" {
		return primitive.NilObjectID, errors.New("cohort requires programId and organizationId")
	}

	cohort.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	cohort.CreatedAt = now
	cohort.UpdatedAt = now
	if cohort.Status == "" {
		cohort.Status = domain.CohortUpcoming
	}

	result, err := r.collection.InsertOne(ctx, cohort)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted cohort ID")
	}
	return insertedID, nil
}

// GetByID retrieves a cohort by its ID.
func (r *mongoCohortRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramCohort, error) {
	var cohort domain.ProgramCohort
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cohort)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cohort, nil
}

// ListByProgram retrieves a program's cohorts, most recent start first.
func (r *mongoCohortRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramCohort, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	return r.find(ctx, bson.M{"programId": programID}, findOptions)
}

// ListByStatus retrieves cohorts in any of the given statuses.
func (r *mongoCohortRepository) ListByStatus(ctx context.Context, statuses []domain.CohortStatus) ([]domain.ProgramCohort, error) {
	return r.find(ctx, bson.M{"status": bson.M{"$in": statuses}}, options.Find())
}

func (r *mongoCohortRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.ProgramCohort, error) {
	var cohorts []domain.ProgramCohort
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &cohorts); err != nil {
		return nil, err
	}
	return cohorts, nil
}

// UpdateStatus sets the lifecycle status of a cohort.
func (r *mongoCohortRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.CohortStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementEnrollment adjusts the cohort's enrollment counter.
func (r *mongoCohortRepository) IncrementEnrollment(ctx context.Context, id primitive.ObjectID, delta int) error {
	update := bson.M{
		"$inc": bson.M{"currentEnrollment": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func cohortIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "startDate", Value: -1}},
			Options: options.Index(),
		},
		{
			// Lifecycle job scans by status
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
}
