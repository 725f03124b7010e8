package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnrollmentStatus tracks where a member is in a program.
type EnrollmentStatus string

const (
	EnrollmentUpcoming  EnrollmentStatus = "upcoming"
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentStopped   EnrollmentStatus = "stopped"
)

// SyncableEnrollmentStatuses are the statuses whose members receive content syncs.
var SyncableEnrollmentStatuses = []EnrollmentStatus{EnrollmentActive, EnrollmentUpcoming}

// ProgramEnrollment links a user to a program and, for group programs, a cohort and squad.
type ProgramEnrollment struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         string              `bson:"userId" json:"userId"`
	ProgramID      primitive.ObjectID  `bson:"programId" json:"programId"`
	CohortID       *primitive.ObjectID `bson:"cohortId,omitempty" json:"cohortId,omitempty"`
	SquadID        string              `bson:"squadId,omitempty" json:"squadId,omitempty"`
	OrganizationID string              `bson:"organizationId" json:"organizationId"`
	Status         EnrollmentStatus    `bson:"status" json:"status"`
	PaymentStatus  string              `bson:"paymentStatus,omitempty" json:"paymentStatus,omitempty"` // "free", "paid", "pending"
	AmountPaid     int64               `bson:"amountPaid,omitempty" json:"amountPaid,omitempty"`       // Minor currency units
	Progress       EnrollmentProgress  `bson:"progress" json:"progress"`
	StartedAt      *time.Time          `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type EnrollmentProgress struct {
	CurrentDayIndex int `bson:"currentDayIndex" json:"currentDayIndex"`
	CompletedDays   int `bson:"completedDays" json:"completedDays"`
}
