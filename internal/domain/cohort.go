package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CohortStatus tracks the lifecycle of a cohort.
type CohortStatus string

const (
	CohortUpcoming  CohortStatus = "upcoming"
	CohortActive    CohortStatus = "active"
	CohortCompleted CohortStatus = "completed"
	CohortArchived  CohortStatus = "archived"
)

// DateLayout is the format of calendar dates (cohort start/end, task dates).
const DateLayout = "2006-01-02"

// ProgramCohort is a scheduled run of a group program.
type ProgramCohort struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID         primitive.ObjectID `bson:"programId" json:"programId"`
	OrganizationID    string             `bson:"organizationId" json:"organizationId"`
	Name              string             `bson:"name" json:"name"`
	StartDate         string             `bson:"startDate" json:"startDate"` // YYYY-MM-DD
	EndDate           string             `bson:"endDate" json:"endDate"`     // YYYY-MM-DD
	MaxEnrollment     *int               `bson:"maxEnrollment,omitempty" json:"maxEnrollment,omitempty"`
	CurrentEnrollment int                `bson:"currentEnrollment" json:"currentEnrollment"`
	Status            CohortStatus       `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StatusAt returns the lifecycle status the cohort should have on the given day.
// Archived cohorts stay archived.
func (c *ProgramCohort) StatusAt(today time.Time) CohortStatus {
	if c.Status == CohortArchived {
		return CohortArchived
	}
	day := today.UTC().Format(DateLayout)
	switch {
	case c.EndDate != "" && c.EndDate < day:
		return CohortCompleted
	case c.StartDate != "" && c.StartDate <= day:
		return CohortActive
	default:
		return CohortUpcoming
	}
}
