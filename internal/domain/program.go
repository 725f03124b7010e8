package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramType distinguishes cohort-based programs from 1:1 coaching programs.
type ProgramType string

const (
	ProgramTypeGroup      ProgramType = "group"
	ProgramTypeIndividual ProgramType = "individual"
)

// Days per week used when laying out program weeks onto day indices.
const (
	DaysPerWeekWithWeekends = 7
	DaysPerWeekWorkdays     = 5
)

// Program is the coach-authored content template for a group or individual offering.
type Program struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID  string             `bson:"organizationId" json:"organizationId"`
	CoachID         string             `bson:"coachId" json:"coachId"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Type            ProgramType        `bson:"type" json:"type"`
	LengthDays      int                `bson:"lengthDays" json:"lengthDays"`
	IncludeWeekends bool               `bson:"includeWeekends" json:"includeWeekends"`
	SquadCapacity   *int               `bson:"squadCapacity,omitempty" json:"squadCapacity,omitempty"` // Group programs only
	DefaultHabits   []HabitTemplate    `bson:"defaultHabits,omitempty" json:"defaultHabits,omitempty"`
	Weeks           []ProgramWeek      `bson:"weeks,omitempty" json:"weeks,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DaysPerWeek returns how many day indices one program week spans.
func (p *Program) DaysPerWeek() int {
	if p.IncludeWeekends {
		return DaysPerWeekWithWeekends
	}
	return DaysPerWeekWorkdays
}

// IsGroup reports whether the program runs in cohorts.
func (p *Program) IsGroup() bool {
	return p.Type == ProgramTypeGroup
}

// ProgramWeek is a week template embedded in a Program (or stored in the legacy
// program_weeks collection).
type ProgramWeek struct {
	ID                  string          `bson:"id" json:"id"`
	WeekNumber          int             `bson:"weekNumber" json:"weekNumber"`
	ModuleID            string          `bson:"moduleId,omitempty" json:"moduleId,omitempty"`
	Order               int             `bson:"order" json:"order"`
	Name                string          `bson:"name,omitempty" json:"name,omitempty"`
	Theme               string          `bson:"theme,omitempty" json:"theme,omitempty"`
	Description         string          `bson:"description,omitempty" json:"description,omitempty"`
	StartDayIndex       int             `bson:"startDayIndex,omitempty" json:"startDayIndex,omitempty"`
	EndDayIndex         int             `bson:"endDayIndex,omitempty" json:"endDayIndex,omitempty"`
	Tasks               []TemplateTask  `bson:"tasks,omitempty" json:"tasks,omitempty"`
	CurrentFocus        []string        `bson:"currentFocus,omitempty" json:"currentFocus,omitempty"`
	Notes               []string        `bson:"notes,omitempty" json:"notes,omitempty"`
	ManualNotes         string          `bson:"manualNotes,omitempty" json:"manualNotes,omitempty"`
	CoachRecordingURL   string          `bson:"coachRecordingUrl,omitempty" json:"coachRecordingUrl,omitempty"`
	CoachRecordingNotes string          `bson:"coachRecordingNotes,omitempty" json:"coachRecordingNotes,omitempty"`
	LinkedCallEventIDs  []string        `bson:"linkedCallEventIds,omitempty" json:"linkedCallEventIds,omitempty"`
	LinkedSummaryIDs    []string        `bson:"linkedSummaryIds,omitempty" json:"linkedSummaryIds,omitempty"`
	WeeklyHabits        []HabitTemplate `bson:"weeklyHabits,omitempty" json:"weeklyHabits,omitempty"`
	WeeklyPrompt        string          `bson:"weeklyPrompt,omitempty" json:"weeklyPrompt,omitempty"`
	Distribution        Distribution    `bson:"distribution,omitempty" json:"distribution,omitempty"`
}

// LegacyProgramWeek is a week stored in the old per-program program_weeks collection.
// Programs created before weeks were embedded still read their template from here.
type LegacyProgramWeek struct {
	DocID       primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProgramID   primitive.ObjectID `bson:"programId" json:"programId"`
	ProgramWeek `bson:",inline"`
}

// Template returns the week as a ProgramWeek. Legacy documents carry no week id, so
// the document id stands in for it and stays stable across reads.
func (w LegacyProgramWeek) Template() ProgramWeek {
	pw := w.ProgramWeek
	if pw.ID == "" && !w.DocID.IsZero() {
		pw.ID = w.DocID.Hex()
	}
	return pw
}

// HabitTemplate is a habit definition a program (or week) suggests to its members.
type HabitTemplate struct {
	ID                string `bson:"id" json:"id"`
	Title             string `bson:"title" json:"title"`
	Description       string `bson:"description,omitempty" json:"description,omitempty"`
	Frequency         string `bson:"frequency,omitempty" json:"frequency,omitempty"` // e.g. "daily", "weekday", "3x_week"
	TargetRepetitions *int   `bson:"targetRepetitions,omitempty" json:"targetRepetitions,omitempty"`
}
