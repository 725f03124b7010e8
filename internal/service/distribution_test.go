package service

import (
	"fmt"
	"testing"

	"alcyxob/coaching-platform/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpreadCounts(t *testing.T) {
	tests := []struct {
		n, days int
		want    []int
	}{
		{n: 5, days: 3, want: []int{2, 2, 1}},
		{n: 3, days: 5, want: []int{1, 1, 1, 0, 0}},
		{n: 10, days: 4, want: []int{3, 3, 3, 1}},
		{n: 7, days: 7, want: []int{1, 1, 1, 1, 1, 1, 1}},
		{n: 0, days: 3, want: []int{0, 0, 0}},
		{n: 4, days: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d over %d", tt.n, tt.days), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SpreadCounts(tt.n, tt.days)); diff != "" {
				t.Errorf("SpreadCounts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSpreadCounts_Properties(t *testing.T) {
	for days := 1; days <= 7; days++ {
		for n := 0; n <= 30; n++ {
			counts := SpreadCounts(n, days)
			require.Len(t, counts, days)

			perDay := (n + days - 1) / days
			sum := 0
			for i, c := range counts {
				sum += c
				assert.LessOrEqual(t, c, perDay, "n=%d days=%d day=%d", n, days, i)
				if i > 0 {
					assert.LessOrEqual(t, c, counts[i-1], "counts must not grow: n=%d days=%d", n, days)
				}
			}
			assert.Equal(t, n, sum, "n=%d days=%d", n, days)
		}
	}
}

func weekWithDays(n int, tasks ...domain.TemplateTask) *domain.InstanceWeek {
	w := &domain.InstanceWeek{ID: "w1", WeekNumber: 1, Tasks: tasks}
	for i := 0; i < n; i++ {
		w.Days = append(w.Days, domain.InstanceDay{DayIndex: i + 1})
	}
	return w
}

func dayLabels(w *domain.InstanceWeek) [][]string {
	out := make([][]string, len(w.Days))
	for i, d := range w.Days {
		out[i] = []string{}
		for _, t := range d.Tasks {
			out[i] = append(out[i], t.Label)
		}
	}
	return out
}

func TestDistributeWeekTasks_Policies(t *testing.T) {
	abc := []domain.TemplateTask{task("a", "A"), task("b", "B"), task("c", "C")}
	tests := []struct {
		name   string
		policy domain.Distribution
		days   int
		want   [][]string
	}{
		{
			name:   "spread one per day",
			policy: domain.DistributionSpread,
			days:   5,
			want:   [][]string{{"A"}, {"B"}, {"C"}, {}, {}},
		},
		{
			name:   "spread packs leading days",
			policy: domain.DistributionSpread,
			days:   2,
			want:   [][]string{{"A", "B"}, {"C"}},
		},
		{
			name:   "default is spread",
			policy: "",
			days:   3,
			want:   [][]string{{"A"}, {"B"}, {"C"}},
		},
		{
			name:   "repeat daily",
			policy: domain.DistributionRepeatDaily,
			days:   3,
			want:   [][]string{{"A", "B", "C"}, {"A", "B", "C"}, {"A", "B", "C"}},
		},
		{
			name:   "all days",
			policy: domain.DistributionAllDays,
			days:   2,
			want:   [][]string{{"A", "B", "C"}, {"A", "B", "C"}},
		},
		{
			name:   "first day",
			policy: domain.DistributionFirstDay,
			days:   3,
			want:   [][]string{{"A", "B", "C"}, {}, {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := weekWithDays(tt.days, abc...)
			DistributeWeekTasks(w, tt.policy)
			if diff := cmp.Diff(tt.want, dayLabels(w)); diff != "" {
				t.Errorf("distribution mismatch (-want +got):\n%s", diff)
			}
			for _, d := range w.Days {
				for _, dt := range d.Tasks {
					assert.Equal(t, domain.TaskSourceWeek, dt.Source)
				}
			}
		})
	}
}

func TestDistributeWeekTasks_KeepsDayAuthoredTasks(t *testing.T) {
	w := weekWithDays(2, task("a", "A"))
	own := domain.TemplateTask{ID: "own", Label: "Journal", Source: domain.TaskSourceDay}
	legacy := domain.TemplateTask{ID: "x", Label: "Old"}
	stale := domain.TemplateTask{ID: "z", Label: "Stale", Source: domain.TaskSourceWeek}
	w.Days[0].Tasks = []domain.TemplateTask{stale, own, legacy}
	w.Days[1].Tasks = []domain.TemplateTask{stale}

	DistributeWeekTasks(w, domain.DistributionAllDays)

	assert.Equal(t, [][]string{{"Journal", "Old", "A"}, {"A"}}, dayLabels(w))
}

func TestDistributeWeekTasks_Redistribution(t *testing.T) {
	w := weekWithDays(3, task("a", "A"), task("b", "B"))
	DistributeWeekTasks(w, domain.DistributionRepeatDaily)
	w.Tasks = []domain.TemplateTask{task("c", "C")}
	DistributeWeekTasks(w, domain.DistributionFirstDay)

	assert.Equal(t, [][]string{{"C"}, {}, {}}, dayLabels(w))
}

func TestDistributeWeekTasks_NoDays(t *testing.T) {
	w := weekWithDays(0, task("a", "A"))
	assert.NotPanics(t, func() { DistributeWeekTasks(w, domain.DistributionSpread) })
	assert.Empty(t, w.Days)
}

func TestNormalizeTemplateTasks(t *testing.T) {
	done := true
	at := "2024-01-02T10:00:00Z"
	in := []domain.TemplateTask{
		{ID: "keep", Label: "Walk", Completed: &done, CompletedAt: &at},
		{Label: "Read"},
	}

	out := NormalizeTemplateTasks(in)

	require.Len(t, out, 2)
	assert.Equal(t, "keep", out[0].ID)
	assert.NotEmpty(t, out[1].ID)
	for _, tt := range out {
		assert.Nil(t, tt.Completed)
		assert.Nil(t, tt.CompletedAt)
	}
	assert.NotNil(t, in[0].Completed, "input must not be modified")
	assert.Empty(t, in[1].ID, "input must not be modified")

	assert.NotNil(t, NormalizeTemplateTasks(nil))
}

func TestValidateTemplateTasks(t *testing.T) {
	assert.NoError(t, ValidateTemplateTasks([]domain.TemplateTask{task("a", "A")}))
	assert.NoError(t, ValidateTemplateTasks(nil))

	err := ValidateTemplateTasks([]domain.TemplateTask{task("a", "A"), {ID: "b"}})
	assert.ErrorIs(t, err, ErrValidation)
}
