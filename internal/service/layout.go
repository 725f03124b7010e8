package service

import (
	"fmt"
	"sort"
	"time"

	"alcyxob/coaching-platform/internal/domain"
)

// WeekDayRange returns the inclusive day-index range of the week at position (0-based).
// When lengthDays is positive the range is clamped to it; a week that starts past the
// end of the program gets end < start and therefore no days.
func WeekDayRange(position, daysPerWeek, lengthDays int) (start, end int) {
	start = position*daysPerWeek + 1
	end = start + daysPerWeek - 1
	if lengthDays > 0 && end > lengthDays {
		end = lengthDays
	}
	return start, end
}

// CalendarDateForDay maps a 1-based day index onto a calendar date counted from the
// cohort's start date. Without weekends only Monday to Friday are counted, and a
// start date falling on a weekend rolls forward to Monday.
func CalendarDateForDay(startDate string, dayIndex int, includeWeekends bool) (string, error) {
	start, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		return "", fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	if dayIndex < 1 {
		return "", fmt.Errorf("invalid day index %d", dayIndex)
	}
	if includeWeekends {
		return start.AddDate(0, 0, dayIndex-1).Format(domain.DateLayout), nil
	}

	d := skipWeekend(start)
	for remaining := dayIndex - 1; remaining > 0; remaining-- {
		d = skipWeekend(d.AddDate(0, 0, 1))
	}
	return d.Format(domain.DateLayout), nil
}

func skipWeekend(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// orderedTemplateWeeks returns a copy of weeks sorted by week number, keeping the
// stored order for equal numbers.
func orderedTemplateWeeks(weeks []domain.ProgramWeek) []domain.ProgramWeek {
	out := append([]domain.ProgramWeek(nil), weeks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out
}

// templateWeekRange returns the day range of a template week, preferring the range
// stored on the week and falling back to its position.
func templateWeekRange(program *domain.Program, week domain.ProgramWeek, position int) (int, int) {
	if week.StartDayIndex > 0 && week.EndDayIndex >= week.StartDayIndex {
		return week.StartDayIndex, week.EndDayIndex
	}
	return WeekDayRange(position, program.DaysPerWeek(), program.LengthDays)
}
