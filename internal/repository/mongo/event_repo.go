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

// mongoDiscoverEventRepository implements repository.DiscoverEventRepository
type mongoDiscoverEventRepository struct {
	collection *mongo.Collection
}

// NewMongoDiscoverEventRepository creates a new DiscoverEvent repository backed by MongoDB.
func NewMongoDiscoverEventRepository(db *mongo.Database) repository.DiscoverEventRepository {
	return &mongoDiscoverEventRepository{
		collection: db.Collection(discoverEventCollectionName),
	}
}

// Create inserts a new event.
func (r *mongoDiscoverEventRepository) Create(ctx context.Context, event *domain.DiscoverEvent) (primitive.ObjectID, error) {
	if event.OrganizationID == "" || event.Title == "" {
		return primitive.NilObjectID, errors.New("event requires organizationId and title")
	}

	event.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted event ID")
	}
	return insertedID, nil
}

// ListByOrganization retrieves an organization's events by start time, optionally only
// those starting after the given instant.
func (r *mongoDiscoverEventRepository) ListByOrganization(ctx context.Context, organizationID string, startingAfter *time.Time) ([]domain.DiscoverEvent, error) {
	filter := bson.M{"organizationId": organizationID}
	if startingAfter != nil {
		filter["startDateTime"] = bson.M{"$gte": startingAfter.UTC()}
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "startDateTime", Value: 1}})

	var events []domain.DiscoverEvent
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func discoverEventIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}, {Key: "startDateTime", Value: 1}},
			Options: options.Index(),
		},
	}
}
