package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DiscoverEvent is a community event surfaced on the members' discover page.
type DiscoverEvent struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID string             `bson:"organizationId" json:"organizationId"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	StartDateTime  time.Time          `bson:"startDateTime" json:"startDateTime"`
	EndDateTime    *time.Time         `bson:"endDateTime,omitempty" json:"endDateTime,omitempty"`
	Timezone       string             `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	CoverImageURL  string             `bson:"coverImageUrl,omitempty" json:"coverImageUrl,omitempty"`
	Featured       bool               `bson:"featured" json:"featured"`
	CreatedBy      string             `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
