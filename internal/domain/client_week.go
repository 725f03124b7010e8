package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientProgramWeek is a client's personal, independently editable copy of one week of
// an individual program. Coaches push template edits into it with a template sync.
type ClientProgramWeek struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EnrollmentID   primitive.ObjectID `bson:"enrollmentId" json:"enrollmentId"`
	ProgramID      primitive.ObjectID `bson:"programId" json:"programId"`
	UserID         string             `bson:"userId" json:"userId"`
	OrganizationID string             `bson:"organizationId" json:"organizationId"`

	// Positional metadata, always refreshed from the template.
	ProgramWeekID string `bson:"programWeekId" json:"programWeekId"`
	WeekNumber    int    `bson:"weekNumber" json:"weekNumber"`
	ModuleID      string `bson:"moduleId,omitempty" json:"moduleId,omitempty"`
	Order         int    `bson:"order" json:"order"`
	StartDayIndex int    `bson:"startDayIndex" json:"startDayIndex"`
	EndDayIndex   int    `bson:"endDayIndex" json:"endDayIndex"`

	Name                string          `bson:"name,omitempty" json:"name,omitempty"`
	Theme               string          `bson:"theme,omitempty" json:"theme,omitempty"`
	Description         string          `bson:"description,omitempty" json:"description,omitempty"`
	Tasks               []TemplateTask  `bson:"tasks" json:"tasks"`
	Distribution        Distribution    `bson:"distribution,omitempty" json:"distribution,omitempty"`
	CurrentFocus        []string        `bson:"currentFocus,omitempty" json:"currentFocus,omitempty"`
	Notes               []string        `bson:"notes,omitempty" json:"notes,omitempty"`
	ManualNotes         string          `bson:"manualNotes,omitempty" json:"manualNotes,omitempty"`
	CoachRecordingURL   string          `bson:"coachRecordingUrl,omitempty" json:"coachRecordingUrl,omitempty"`
	CoachRecordingNotes string          `bson:"coachRecordingNotes,omitempty" json:"coachRecordingNotes,omitempty"`
	LinkedCallEventIDs  []string        `bson:"linkedCallEventIds,omitempty" json:"linkedCallEventIds,omitempty"`
	LinkedSummaryIDs    []string        `bson:"linkedSummaryIds,omitempty" json:"linkedSummaryIds,omitempty"`
	WeeklyHabits        []HabitTemplate `bson:"weeklyHabits,omitempty" json:"weeklyHabits,omitempty"`
	WeeklyPrompt        string          `bson:"weeklyPrompt,omitempty" json:"weeklyPrompt,omitempty"`

	LastSyncedAt *time.Time `bson:"lastSyncedAt,omitempty" json:"lastSyncedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// ClientWeekBatch is the set of client week writes for one enrollment, committed atomically.
type ClientWeekBatch struct {
	Creates  []ClientProgramWeek
	Replaces []ClientProgramWeek // Full documents; ID must be set
}
