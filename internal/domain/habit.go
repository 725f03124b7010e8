package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Habit is a member's personal habit. Habits seeded from a program keep the id of the
// HabitTemplate they came from.
type Habit struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"userId" json:"userId"`
	OrganizationID    string             `bson:"organizationId" json:"organizationId"`
	ProgramID         primitive.ObjectID `bson:"programId,omitempty" json:"programId,omitempty"`
	HabitTemplateID   string             `bson:"habitTemplateId,omitempty" json:"habitTemplateId,omitempty"`
	Title             string             `bson:"title" json:"title"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Frequency         string             `bson:"frequency,omitempty" json:"frequency,omitempty"`
	TargetRepetitions *int               `bson:"targetRepetitions,omitempty" json:"targetRepetitions,omitempty"`
	Archived          bool               `bson:"archived" json:"archived"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HabitBatch is the set of habit writes for one member.
type HabitBatch struct {
	Creates  []Habit
	Replaces []Habit
}
