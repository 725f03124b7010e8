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

// mongoEnrollmentRepository implements repository.EnrollmentRepository
type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new ProgramEnrollment repository backed by MongoDB.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

// Create inserts a new enrollment. A user holds at most one enrollment per program run
// (per cohort for group programs, per program for individual ones).
func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.ProgramEnrollment) (primitive.ObjectID, error) {
	if enrollment.UserID == "" || enrollment.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires userId and programId")
	}

	enrollment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = domain.EnrollmentUpcoming
	}

	result, err := r.collection.InsertOne(ctx, enrollment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted enrollment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an enrollment by its ID.
func (r *mongoEnrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramEnrollment, error) {
	var enrollment domain.ProgramEnrollment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// ListByProgram retrieves a program's enrollments in the given statuses (all when empty).
func (r *mongoEnrollmentRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID, statuses []domain.EnrollmentStatus) ([]domain.ProgramEnrollment, error) {
	return r.find(ctx, withStatuses(bson.M{"programId": programID}, statuses))
}

// ListByCohort retrieves a cohort's enrollments in the given statuses (all when empty).
func (r *mongoEnrollmentRepository) ListByCohort(ctx context.Context, cohortID primitive.ObjectID, statuses []domain.EnrollmentStatus) ([]domain.ProgramEnrollment, error) {
	return r.find(ctx, withStatuses(bson.M{"cohortId": cohortID}, statuses))
}

func (r *mongoEnrollmentRepository) find(ctx context.Context, filter bson.M) ([]domain.ProgramEnrollment, error) {
	var enrollments []domain.ProgramEnrollment
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func withStatuses(filter bson.M, statuses []domain.EnrollmentStatus) bson.M {
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return filter
}

func enrollmentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "cohortId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Member lookup for cohort syncs
			Keys:    bson.D{{Key: "cohortId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
}
