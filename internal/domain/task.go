package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskSourceProgram marks a user task that was instantiated from a program template.
const TaskSourceProgram = "program"

// Task is a per-user, per-day task document. Tasks created by program syncs carry the
// id of the template task they were made from in InstanceTaskID.
type Task struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID           string              `bson:"userId" json:"userId"`
	OrganizationID   string              `bson:"organizationId" json:"organizationId"`
	ProgramID        primitive.ObjectID  `bson:"programId,omitempty" json:"programId,omitempty"`
	InstanceID       primitive.ObjectID  `bson:"instanceId,omitempty" json:"instanceId,omitempty"`
	CohortID         *primitive.ObjectID `bson:"cohortId,omitempty" json:"cohortId,omitempty"`
	DayIndex         int                 `bson:"dayIndex" json:"dayIndex"`
	InstanceTaskID   string              `bson:"instanceTaskId,omitempty" json:"instanceTaskId,omitempty"`
	Label            string              `bson:"label" json:"label"`
	IsPrimary        bool                `bson:"isPrimary" json:"isPrimary"`
	Type             string              `bson:"type,omitempty" json:"type,omitempty"`
	EstimatedMinutes *int                `bson:"estimatedMinutes,omitempty" json:"estimatedMinutes,omitempty"`
	Notes            string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Tag              string              `bson:"tag,omitempty" json:"tag,omitempty"`
	Date             string              `bson:"date,omitempty" json:"date,omitempty"` // YYYY-MM-DD
	Order            int                 `bson:"order" json:"order"`
	SourceType       string              `bson:"sourceType,omitempty" json:"sourceType,omitempty"`
	Completed        bool                `bson:"completed" json:"completed"`
	CompletedAt      *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TaskDisplayUpdate carries the mutable display fields a sync may change on an existing
// task. Completion state is deliberately absent.
type TaskDisplayUpdate struct {
	ID               primitive.ObjectID
	Label            string
	IsPrimary        bool
	Type             string
	EstimatedMinutes *int
	Notes            string
	Tag              string
	Date             string
	Order            int
}

// TaskBatch is the set of writes for one member-day, committed atomically.
type TaskBatch struct {
	Creates []Task
	Updates []TaskDisplayUpdate
	Deletes []primitive.ObjectID
}

// Empty reports whether the batch has nothing to write.
func (b *TaskBatch) Empty() bool {
	return len(b.Creates) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0
}
