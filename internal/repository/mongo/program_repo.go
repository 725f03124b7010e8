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

// mongoProgramRepository implements repository.ProgramRepository
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new Program repository backed by MongoDB.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.OrganizationID == "" || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires organizationId and name")
	}

	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted program ID")
	}
	return insertedID, nil
}

// GetByID retrieves a program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

func programIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// Programs are always listed inside one organization
			Keys:    bson.D{{Key: "organizationId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
}

// mongoLegacyWeekRepository implements repository.LegacyWeekRepository
type mongoLegacyWeekRepository struct {
	collection *mongo.Collection
}

// NewMongoLegacyWeekRepository creates a reader for the legacy program_weeks collection.
func NewMongoLegacyWeekRepository(db *mongo.Database) repository.LegacyWeekRepository {
	return &mongoLegacyWeekRepository{
		collection: db.Collection(legacyWeekCollectionName),
	}
}

// ListByProgram retrieves a program's legacy weeks ordered by week number.
func (r *mongoLegacyWeekRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.LegacyProgramWeek, error) {
	var weeks []domain.LegacyProgramWeek
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"programId": programID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

func legacyWeekIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index(),
		},
	}
}
