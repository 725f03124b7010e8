package domain

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Distribution is the policy for fanning a week's task templates across its days.
type Distribution string

const (
	DistributionSpread      Distribution = "spread"
	DistributionRepeatDaily Distribution = "repeat-daily"
	DistributionAllDays     Distribution = "all_days"
	DistributionFirstDay    Distribution = "first_day"
)

// Valid reports whether d is a known distribution policy. The empty value is valid
// and means "use the default".
func (d Distribution) Valid() bool {
	switch d {
	case "", DistributionSpread, DistributionRepeatDaily, DistributionAllDays, DistributionFirstDay:
		return true
	}
	return false
}

// TaskSource records where a day-level template task came from.
type TaskSource string

const (
	TaskSourceWeek TaskSource = "week" // Materialised from the week's task list by a distribution
	TaskSourceDay  TaskSource = "day"  // Authored directly on the day
)

// TemplateTask is a task definition that belongs to a week or a day, not yet tied to a user.
type TemplateTask struct {
	ID               string     `bson:"id" json:"id"`
	Label            string     `bson:"label" json:"label"`
	Type             string     `bson:"type,omitempty" json:"type,omitempty"` // "task", "learning", "reflection", ...
	IsPrimary        bool       `bson:"isPrimary" json:"isPrimary"`
	EstimatedMinutes *int       `bson:"estimatedMinutes,omitempty" json:"estimatedMinutes,omitempty"`
	Notes            string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Tag              string     `bson:"tag,omitempty" json:"tag,omitempty"`
	Source           TaskSource `bson:"source,omitempty" json:"source,omitempty"`

	// Runtime completion fields occasionally posted back by clients. They are never persisted
	// on a template; see service.NormalizeTemplateTasks.
	Completed   *bool   `bson:"completed,omitempty" json:"completed,omitempty"`
	CompletedAt *string `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// ProgramInstance is the mutable materialisation of a program's week/day/task
// structure for one cohort (or one individual enrollment).
type ProgramInstance struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProgramID       primitive.ObjectID  `bson:"programId" json:"programId"`
	CohortID        *primitive.ObjectID `bson:"cohortId,omitempty" json:"cohortId,omitempty"`
	EnrollmentID    *primitive.ObjectID `bson:"enrollmentId,omitempty" json:"enrollmentId,omitempty"`
	OrganizationID  string              `bson:"organizationId" json:"organizationId"`
	Type            ProgramType         `bson:"type" json:"type"`
	IncludeWeekends bool                `bson:"includeWeekends" json:"includeWeekends"`
	Weeks           []InstanceWeek      `bson:"weeks" json:"weeks"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// FindWeek locates a week by ordinal (week number) first and by internal id second.
// It returns the index into Weeks, or -1.
func (pi *ProgramInstance) FindWeek(weekRef string) int {
	if n, err := strconv.Atoi(weekRef); err == nil {
		for i := range pi.Weeks {
			if pi.Weeks[i].WeekNumber == n {
				return i
			}
		}
	}
	for i := range pi.Weeks {
		if pi.Weeks[i].ID == weekRef {
			return i
		}
	}
	return -1
}

// InstanceWeek is one week of a ProgramInstance.
type InstanceWeek struct {
	ID                  string          `bson:"id" json:"id"`
	WeekNumber          int             `bson:"weekNumber" json:"weekNumber"`
	ModuleID            string          `bson:"moduleId,omitempty" json:"moduleId,omitempty"`
	Order               int             `bson:"order" json:"order"`
	Name                string          `bson:"name,omitempty" json:"name,omitempty"`
	Theme               string          `bson:"theme,omitempty" json:"theme,omitempty"`
	Description         string          `bson:"description,omitempty" json:"description,omitempty"`
	StartDayIndex       int             `bson:"startDayIndex" json:"startDayIndex"`
	EndDayIndex         int             `bson:"endDayIndex" json:"endDayIndex"`
	Tasks               []TemplateTask  `bson:"tasks" json:"tasks"`
	Days                []InstanceDay   `bson:"days" json:"days"`
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

// InstanceDay is one day of an InstanceWeek.
type InstanceDay struct {
	DayIndex     int             `bson:"dayIndex" json:"dayIndex"`
	CalendarDate string          `bson:"calendarDate,omitempty" json:"calendarDate,omitempty"` // YYYY-MM-DD, cohorts only
	Tasks        []TemplateTask  `bson:"tasks" json:"tasks"`
	Habits       []HabitTemplate `bson:"habits" json:"habits"`
}
