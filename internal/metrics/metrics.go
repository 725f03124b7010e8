// Package metrics exposes Prometheus instruments for content syncs and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and tools free of registry plumbing.
type Metrics struct {
	memberTasks      *prometheus.CounterVec
	memberSyncErrors prometheus.Counter
	templateClients  *prometheus.CounterVec
	habitChanges     *prometheus.CounterVec
	instancesCreated prometheus.Counter
	cohortStatuses   *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
//
// Metrics:
//   - coach_member_tasks_synced_total{op} - task documents created/updated/deleted by member syncs
//   - coach_member_sync_errors_total - member-day batches that failed to commit
//   - coach_template_sync_clients_total{result} - enrollments processed by template syncs
//   - coach_habit_sync_changes_total{op} - habits created/updated/archived by habit syncs
//   - coach_instances_created_total - cohort instances materialised
//   - coach_cohort_status_transitions_total{status} - lifecycle transitions applied
//   - coach_http_requests_total{method,route,status}
//   - coach_http_request_duration_seconds{method,route}
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		memberTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_member_tasks_synced_total",
			Help: "Member task documents written by program syncs",
		}, []string{"op"}),
		memberSyncErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "coach_member_sync_errors_total",
			Help: "Member-day task batches that failed to commit",
		}),
		templateClients: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_template_sync_clients_total",
			Help: "Enrollments processed by template-to-client syncs",
		}, []string{"result"}),
		habitChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_habit_sync_changes_total",
			Help: "Member habits written by default-habit syncs",
		}, []string{"op"}),
		instancesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "coach_instances_created_total",
			Help: "Cohort program instances materialised",
		}),
		cohortStatuses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_cohort_status_transitions_total",
			Help: "Cohort lifecycle transitions applied by the scheduler",
		}, []string{"status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coach_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) MemberTasks(created, updated, deleted int) {
	if m == nil {
		return
	}
	m.memberTasks.WithLabelValues("created").Add(float64(created))
	m.memberTasks.WithLabelValues("updated").Add(float64(updated))
	m.memberTasks.WithLabelValues("deleted").Add(float64(deleted))
}

func (m *Metrics) MemberSyncError() {
	if m == nil {
		return
	}
	m.memberSyncErrors.Inc()
}

// TemplateSyncClient records one enrollment outcome: "updated" or "failed".
func (m *Metrics) TemplateSyncClient(result string) {
	if m == nil {
		return
	}
	m.templateClients.WithLabelValues(result).Inc()
}

func (m *Metrics) HabitChanges(created, updated, archived int) {
	if m == nil {
		return
	}
	m.habitChanges.WithLabelValues("created").Add(float64(created))
	m.habitChanges.WithLabelValues("updated").Add(float64(updated))
	m.habitChanges.WithLabelValues("archived").Add(float64(archived))
}

func (m *Metrics) InstanceCreated() {
	if m == nil {
		return
	}
	m.instancesCreated.Inc()
}

func (m *Metrics) CohortStatusTransition(status string) {
	if m == nil {
		return
	}
	m.cohortStatuses.WithLabelValues(status).Inc()
}

// HTTPRequest records a finished request. route is the matched route template, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) HTTPRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
