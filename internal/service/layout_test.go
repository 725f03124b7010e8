package service

import (
	"testing"

	"alcyxob/coaching-platform/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekDayRange(t *testing.T) {
	tests := []struct {
		name                      string
		position, perWeek, length int
		wantStart, wantEnd        int
	}{
		{name: "first week with weekends", position: 0, perWeek: 7, wantStart: 1, wantEnd: 7},
		{name: "second workday week", position: 1, perWeek: 5, wantStart: 6, wantEnd: 10},
		{name: "clamped to program length", position: 2, perWeek: 7, length: 18, wantStart: 15, wantEnd: 18},
		{name: "past the end", position: 3, perWeek: 7, length: 18, wantStart: 22, wantEnd: 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekDayRange(tt.position, tt.perWeek, tt.length)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestCalendarDateForDay(t *testing.T) {
	// 2024-01-01 is a Monday.
	tests := []struct {
		name     string
		start    string
		day      int
		weekends bool
		want     string
	}{
		{name: "day one", start: "2024-01-01", day: 1, weekends: true, want: "2024-01-01"},
		{name: "calendar days", start: "2024-01-01", day: 8, weekends: true, want: "2024-01-08"},
		{name: "calendar days cross month", start: "2024-01-30", day: 3, weekends: true, want: "2024-02-01"},
		{name: "friday", start: "2024-01-01", day: 5, weekends: false, want: "2024-01-05"},
		{name: "skips weekend", start: "2024-01-01", day: 6, weekends: false, want: "2024-01-08"},
		{name: "second week", start: "2024-01-01", day: 10, weekends: false, want: "2024-01-12"},
		{name: "saturday start rolls to monday", start: "2024-01-06", day: 1, weekends: false, want: "2024-01-08"},
		{name: "sunday start", start: "2024-01-07", day: 2, weekends: false, want: "2024-01-09"},
		{name: "saturday start with weekends", start: "2024-01-06", day: 1, weekends: true, want: "2024-01-06"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalendarDateForDay(tt.start, tt.day, tt.weekends)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalendarDateForDay_Invalid(t *testing.T) {
	_, err := CalendarDateForDay("01/02/2024", 1, true)
	assert.Error(t, err)

	_, err = CalendarDateForDay("2024-01-01", 0, true)
	assert.Error(t, err)
}

func TestOrderedTemplateWeeks(t *testing.T) {
	in := []domain.ProgramWeek{
		{ID: "c", WeekNumber: 3},
		{ID: "a", WeekNumber: 1},
		{ID: "b1", WeekNumber: 2},
		{ID: "b2", WeekNumber: 2},
	}
	out := orderedTemplateWeeks(in)

	ids := make([]string, len(out))
	for i, w := range out {
		ids[i] = w.ID
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
	assert.Equal(t, "c", in[0].ID, "input must keep its order")
}

func TestTemplateWeekRange(t *testing.T) {
	p := &domain.Program{LengthDays: 20, IncludeWeekends: true}

	start, end := templateWeekRange(p, domain.ProgramWeek{StartDayIndex: 3, EndDayIndex: 9}, 0)
	assert.Equal(t, 3, start)
	assert.Equal(t, 9, end)

	start, end = templateWeekRange(p, domain.ProgramWeek{}, 2)
	assert.Equal(t, 15, start)
	assert.Equal(t, 20, end)
}
