package service

import (
	"alcyxob/coaching-platform/internal/domain"

	"github.com/google/uuid"
)

// DefaultDistribution is applied when neither the request nor the week names a policy.
const DefaultDistribution = domain.DistributionSpread

// NormalizeTemplateTasks returns a copy of tasks in which every task has an id and no
// runtime completion state. The result is never nil.
func NormalizeTemplateTasks(tasks []domain.TemplateTask) []domain.TemplateTask {
	out := make([]domain.TemplateTask, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.Completed = nil
		t.CompletedAt = nil
		out = append(out, t)
	}
	return out
}

// ValidateTemplateTasks rejects tasks that cannot be shown to a member.
func ValidateTemplateTasks(tasks []domain.TemplateTask) error {
	for _, t := range tasks {
		if t.Label == "" {
			return validationError("task label is required")
		}
	}
	return nil
}

// SpreadCounts returns how many of n tasks each of days days receives under the
// spread policy: ceil(n/days) per day, with the remainder on the trailing days.
func SpreadCounts(n, days int) []int {
	if days <= 0 {
		return nil
	}
	counts := make([]int, days)
	if n <= 0 {
		return counts
	}
	perDay := (n + days - 1) / days
	remaining := n
	for i := range counts {
		c := perDay
		if remaining < c {
			c = remaining
		}
		counts[i] = c
		remaining -= c
	}
	return counts
}

// DistributeWeekTasks fans the week's task templates out over its days according to
// policy. Tasks previously placed on a day by a distribution (source "week") are
// replaced; tasks from any other source stay ahead of them in their original order.
func DistributeWeekTasks(week *domain.InstanceWeek, policy domain.Distribution) {
	if policy == "" {
		policy = DefaultDistribution
	}
	if len(week.Days) == 0 {
		return
	}

	perDay := make([][]domain.TemplateTask, len(week.Days))
	switch policy {
	case domain.DistributionRepeatDaily, domain.DistributionAllDays:
		for i := range perDay {
			perDay[i] = week.Tasks
		}
	case domain.DistributionFirstDay:
		perDay[0] = week.Tasks
	default:
		start := 0
		for i, c := range SpreadCounts(len(week.Tasks), len(week.Days)) {
			perDay[i] = week.Tasks[start : start+c]
			start += c
		}
	}

	for i := range week.Days {
		day := &week.Days[i]
		kept := make([]domain.TemplateTask, 0, len(day.Tasks)+len(perDay[i]))
		for _, t := range day.Tasks {
			if t.Source != domain.TaskSourceWeek {
				kept = append(kept, t)
			}
		}
		for _, t := range perDay[i] {
			t.Source = domain.TaskSourceWeek
			t.Completed = nil
			t.CompletedAt = nil
			kept = append(kept, t)
		}
		day.Tasks = kept
	}
}
