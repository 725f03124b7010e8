package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProgramInstance_FindWeek(t *testing.T) {
	pi := &ProgramInstance{Weeks: []InstanceWeek{
		{ID: "3", WeekNumber: 1},
		{ID: "intro", WeekNumber: 2},
		{ID: "b7e1", WeekNumber: 3},
	}}

	tests := []struct {
		ref  string
		want int
	}{
		{ref: "1", want: 0},
		{ref: "3", want: 2}, // ordinal wins over a week whose id is "3"
		{ref: "intro", want: 1},
		{ref: "b7e1", want: 2},
		{ref: "9", want: -1},
		{ref: "", want: -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pi.FindWeek(tt.ref), "ref %q", tt.ref)
	}
}

func TestProgramCohort_StatusAt(t *testing.T) {
	day := func(s string) time.Time {
		d, _ := time.Parse(DateLayout, s)
		return d.Add(13 * time.Hour)
	}
	c := &ProgramCohort{StartDate: "2024-03-01", EndDate: "2024-03-31", Status: CohortUpcoming}

	assert.Equal(t, CohortUpcoming, c.StatusAt(day("2024-02-29")))
	assert.Equal(t, CohortActive, c.StatusAt(day("2024-03-01")))
	assert.Equal(t, CohortActive, c.StatusAt(day("2024-03-31")))
	assert.Equal(t, CohortCompleted, c.StatusAt(day("2024-04-01")))

	c.Status = CohortArchived
	assert.Equal(t, CohortArchived, c.StatusAt(day("2024-03-15")))
}

func TestDistribution_Valid(t *testing.T) {
	for _, d := range []Distribution{"", DistributionSpread, DistributionRepeatDaily, DistributionAllDays, DistributionFirstDay} {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, Distribution("weekly").Valid())
}

func TestCaller_Access(t *testing.T) {
	coach := Caller{UserID: "c", OrganizationID: "org-1", Role: RoleCoach}
	member := Caller{UserID: "m", OrganizationID: "org-1", Role: RoleMember}
	orphan := Caller{UserID: "o", Role: RoleAdmin}

	assert.True(t, coach.IsStaff())
	assert.False(t, member.IsStaff())
	assert.True(t, SystemCaller.IsStaff())

	assert.True(t, coach.CanAccessOrganization("org-1"))
	assert.False(t, coach.CanAccessOrganization("org-2"))
	assert.False(t, orphan.CanAccessOrganization(""))
	assert.True(t, SystemCaller.CanAccessOrganization("org-2"))
}

func TestTaskBatch_Empty(t *testing.T) {
	var b TaskBatch
	assert.True(t, b.Empty())
	b.Deletes = append(b.Deletes, primitive.NewObjectID())
	assert.False(t, b.Empty())
}

func TestLegacyProgramWeek_Template(t *testing.T) {
	docID := primitive.NewObjectID()

	w := LegacyProgramWeek{DocID: docID, ProgramWeek: ProgramWeek{WeekNumber: 2, Name: "Build"}}
	assert.Equal(t, docID.Hex(), w.Template().ID)
	assert.Equal(t, docID.Hex(), w.Template().ID, "stable across reads")
	assert.Equal(t, "Build", w.Template().Name)

	w.ID = "own-id"
	assert.Equal(t, "own-id", w.Template().ID)
}
