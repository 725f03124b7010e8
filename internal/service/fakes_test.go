package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories for service tests. Each stores copies so that services
// cannot mutate stored state without going through the repository.

type fakeProgramRepo struct {
	mu       sync.Mutex
	programs map[primitive.ObjectID]domain.Program
}

func newFakeProgramRepo(programs ...domain.Program) *fakeProgramRepo {
	r := &fakeProgramRepo{programs: map[primitive.ObjectID]domain.Program{}}
	for _, p := range programs {
		r.programs[p.ID] = p
	}
	return r
}

func (r *fakeProgramRepo) Create(_ context.Context, p *domain.Program) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	r.programs[p.ID] = *p
	return p.ID, nil
}

func (r *fakeProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

type fakeLegacyRepo struct {
	weeks map[primitive.ObjectID][]domain.LegacyProgramWeek
	calls int
}

func (r *fakeLegacyRepo) ListByProgram(_ context.Context, programID primitive.ObjectID) ([]domain.LegacyProgramWeek, error) {
	r.calls++
	if r.weeks == nil {
		return nil, nil
	}
	return append([]domain.LegacyProgramWeek(nil), r.weeks[programID]...), nil
}

type fakeCohortRepo struct {
	mu        sync.Mutex
	cohorts   map[primitive.ObjectID]domain.ProgramCohort
	failIDs   map[primitive.ObjectID]error
	increment map[primitive.ObjectID]int
}

func newFakeCohortRepo(cohorts ...domain.ProgramCohort) *fakeCohortRepo {
	r := &fakeCohortRepo{
		cohorts:   map[primitive.ObjectID]domain.ProgramCohort{},
		failIDs:   map[primitive.ObjectID]error{},
		increment: map[primitive.ObjectID]int{},
	}
	for _, c := range cohorts {
		r.cohorts[c.ID] = c
	}
	return r
}

func (r *fakeCohortRepo) Create(_ context.Context, c *domain.ProgramCohort) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = primitive.NewObjectID()
	r.cohorts[c.ID] = *c
	return c.ID, nil
}

func (r *fakeCohortRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramCohort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cohorts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *fakeCohortRepo) ListByProgram(_ context.Context, programID primitive.ObjectID) ([]domain.ProgramCohort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProgramCohort
	for _, c := range r.cohorts {
		if c.ProgramID == programID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}

func (r *fakeCohortRepo) ListByStatus(_ context.Context, statuses []domain.CohortStatus) ([]domain.ProgramCohort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProgramCohort
	for _, c := range r.cohorts {
		for _, s := range statuses {
			if c.Status == s {
				out = append(out, c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *fakeCohortRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.CohortStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIDs[id]; err != nil {
		return err
	}
	c, ok := r.cohorts[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	r.cohorts[id] = c
	return nil
}

func (r *fakeCohortRepo) IncrementEnrollment(_ context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cohorts[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.CurrentEnrollment += delta
	r.cohorts[id] = c
	r.increment[id] += delta
	return nil
}

type fakeInstanceRepo struct {
	mu          sync.Mutex
	byCohort    map[primitive.ObjectID]domain.ProgramInstance
	createCalls int
	updateCalls int
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{byCohort: map[primitive.ObjectID]domain.ProgramInstance{}}
}

func (r *fakeInstanceRepo) GetByCohort(_ context.Context, programID, cohortID primitive.ObjectID) (*domain.ProgramInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.byCohort[cohortID]
	if !ok || inst.ProgramID != programID {
		return nil, repository.ErrNotFound
	}
	return cloneInstance(inst), nil
}

func (r *fakeInstanceRepo) CreateForCohort(_ context.Context, instance *domain.ProgramInstance) (*domain.ProgramInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if existing, ok := r.byCohort[*instance.CohortID]; ok {
		return cloneInstance(existing), nil
	}
	if instance.ID.IsZero() {
		instance.ID = primitive.NewObjectID()
	}
	r.byCohort[*instance.CohortID] = *cloneInstance(*instance)
	return cloneInstance(*instance), nil
}

func (r *fakeInstanceRepo) UpdateWeeks(_ context.Context, id primitive.ObjectID, weeks []domain.InstanceWeek) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cohortID, inst := range r.byCohort {
		if inst.ID == id {
			inst.Weeks = weeks
			r.byCohort[cohortID] = *cloneInstance(inst)
			r.updateCalls++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeInstanceRepo) stored(cohortID primitive.ObjectID) domain.ProgramInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *cloneInstance(r.byCohort[cohortID])
}

func cloneInstance(in domain.ProgramInstance) *domain.ProgramInstance {
	out := in
	out.Weeks = make([]domain.InstanceWeek, len(in.Weeks))
	for i, w := range in.Weeks {
		w.Tasks = append([]domain.TemplateTask(nil), w.Tasks...)
		days := make([]domain.InstanceDay, len(w.Days))
		for j, d := range w.Days {
			d.Tasks = append([]domain.TemplateTask(nil), d.Tasks...)
			days[j] = d
		}
		w.Days = days
		out.Weeks[i] = w
	}
	return &out
}

type fakeEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments []domain.ProgramEnrollment
	createErr   error
	getErr      error
}

func (r *fakeEnrollmentRepo) Create(_ context.Context, e *domain.ProgramEnrollment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	e.ID = primitive.NewObjectID()
	r.enrollments = append(r.enrollments, *e)
	return e.ID, nil
}

func (r *fakeEnrollmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramEnrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, e := range r.enrollments {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEnrollmentRepo) ListByProgram(_ context.Context, programID primitive.ObjectID, statuses []domain.EnrollmentStatus) ([]domain.ProgramEnrollment, error) {
	return r.list(func(e domain.ProgramEnrollment) bool { return e.ProgramID == programID }, statuses), nil
}

func (r *fakeEnrollmentRepo) ListByCohort(_ context.Context, cohortID primitive.ObjectID, statuses []domain.EnrollmentStatus) ([]domain.ProgramEnrollment, error) {
	return r.list(func(e domain.ProgramEnrollment) bool { return e.CohortID != nil && *e.CohortID == cohortID }, statuses), nil
}

func (r *fakeEnrollmentRepo) list(match func(domain.ProgramEnrollment) bool, statuses []domain.EnrollmentStatus) []domain.ProgramEnrollment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProgramEnrollment
	for _, e := range r.enrollments {
		if !match(e) {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, e.Status) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func containsStatus(statuses []domain.EnrollmentStatus, s domain.EnrollmentStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

type fakeTaskRepo struct {
	mu         sync.Mutex
	tasks      map[primitive.ObjectID]domain.Task
	failUsers  map[string]error
	batchCalls int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[primitive.ObjectID]domain.Task{}, failUsers: map[string]error{}}
}

func (r *fakeTaskRepo) ListForInstanceDay(_ context.Context, userID string, instanceID primitive.ObjectID, dayIndex int) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failUsers[userID]; err != nil {
		return nil, err
	}
	var out []domain.Task
	for _, t := range r.tasks {
		if t.UserID == userID && t.InstanceID == instanceID && t.DayIndex == dayIndex {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out, nil
}

func (r *fakeTaskRepo) ApplyBatch(_ context.Context, batch domain.TaskBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchCalls++
	for _, t := range batch.Creates {
		t.ID = primitive.NewObjectID()
		r.tasks[t.ID] = t
	}
	for _, u := range batch.Updates {
		t, ok := r.tasks[u.ID]
		if !ok {
			return repository.ErrNotFound
		}
		t.Label = u.Label
		t.IsPrimary = u.IsPrimary
		t.Type = u.Type
		t.EstimatedMinutes = u.EstimatedMinutes
		t.Notes = u.Notes
		t.Tag = u.Tag
		t.Date = u.Date
		t.Order = u.Order
		t.UpdatedAt = time.Now().UTC()
		r.tasks[u.ID] = t
	}
	for _, id := range batch.Deletes {
		delete(r.tasks, id)
	}
	return nil
}

// put stores a task directly, as a member's own edits would.
func (r *fakeTaskRepo) put(t domain.Task) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.tasks[t.ID] = t
	return t.ID
}

func (r *fakeTaskRepo) forUser(userID string) []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out
}

func sortTasks(tasks []domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].DayIndex != tasks[j].DayIndex {
			return tasks[i].DayIndex < tasks[j].DayIndex
		}
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].ID.Hex() < tasks[j].ID.Hex()
	})
}

type fakeClientWeekRepo struct {
	mu      sync.Mutex
	weeks   map[primitive.ObjectID]domain.ClientProgramWeek
	failFor map[primitive.ObjectID]error
	batches int
}

func newFakeClientWeekRepo(weeks ...domain.ClientProgramWeek) *fakeClientWeekRepo {
	r := &fakeClientWeekRepo{
		weeks:   map[primitive.ObjectID]domain.ClientProgramWeek{},
		failFor: map[primitive.ObjectID]error{},
	}
	for _, w := range weeks {
		if w.ID.IsZero() {
			w.ID = primitive.NewObjectID()
		}
		r.weeks[w.ID] = w
	}
	return r
}

func (r *fakeClientWeekRepo) ListByEnrollment(_ context.Context, enrollmentID primitive.ObjectID) ([]domain.ClientProgramWeek, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[enrollmentID]; err != nil {
		return nil, err
	}
	var out []domain.ClientProgramWeek
	for _, w := range r.weeks {
		if w.EnrollmentID == enrollmentID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

func (r *fakeClientWeekRepo) ApplyBatch(_ context.Context, batch domain.ClientWeekBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
	for _, w := range batch.Creates {
		// Mirrors the unique (enrollmentId, programWeekId) index
		for _, stored := range r.weeks {
			if stored.EnrollmentID == w.EnrollmentID && stored.ProgramWeekID == w.ProgramWeekID {
				return repository.ErrDuplicate
			}
		}
		w.ID = primitive.NewObjectID()
		r.weeks[w.ID] = w
	}
	for _, w := range batch.Replaces {
		if _, ok := r.weeks[w.ID]; !ok {
			return repository.ErrNotFound
		}
		r.weeks[w.ID] = w
	}
	return nil
}

func (r *fakeClientWeekRepo) forEnrollment(id primitive.ObjectID) []domain.ClientProgramWeek {
	out, _ := r.ListByEnrollment(context.Background(), id)
	return out
}

type fakeHabitRepo struct {
	mu        sync.Mutex
	habits    map[primitive.ObjectID]domain.Habit
	failUsers map[string]error
}

func newFakeHabitRepo(habits ...domain.Habit) *fakeHabitRepo {
	r := &fakeHabitRepo{habits: map[primitive.ObjectID]domain.Habit{}, failUsers: map[string]error{}}
	for _, h := range habits {
		if h.ID.IsZero() {
			h.ID = primitive.NewObjectID()
		}
		r.habits[h.ID] = h
	}
	return r
}

func (r *fakeHabitRepo) ListByUserAndProgram(_ context.Context, userID string, programID primitive.ObjectID) ([]domain.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failUsers[userID]; err != nil {
		return nil, err
	}
	var out []domain.Habit
	for _, h := range r.habits {
		if h.UserID == userID && h.ProgramID == programID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HabitTemplateID < out[j].HabitTemplateID })
	return out, nil
}

func (r *fakeHabitRepo) ApplyBatch(_ context.Context, batch domain.HabitBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range batch.Creates {
		h.ID = primitive.NewObjectID()
		r.habits[h.ID] = h
	}
	for _, h := range batch.Replaces {
		r.habits[h.ID] = h
	}
	return nil
}

type fakeEventRepo struct {
	events []domain.DiscoverEvent
	after  *time.Time
}

func (r *fakeEventRepo) Create(_ context.Context, e *domain.DiscoverEvent) (primitive.ObjectID, error) {
	e.ID = primitive.NewObjectID()
	r.events = append(r.events, *e)
	return e.ID, nil
}

func (r *fakeEventRepo) ListByOrganization(_ context.Context, organizationID string, startingAfter *time.Time) ([]domain.DiscoverEvent, error) {
	r.after = startingAfter
	var out []domain.DiscoverEvent
	for _, e := range r.events {
		if e.OrganizationID != organizationID {
			continue
		}
		if startingAfter != nil && e.StartDateTime.Before(*startingAfter) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeStorage struct {
	keys []string
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	s.keys = append(s.keys, objectKey)
	return "https://upload.example.test/" + objectKey + "?sig=1", nil
}

func (s *fakeStorage) ObjectURL(objectKey string) string {
	return "https://cdn.example.test/" + objectKey
}

// --- fixtures ---

const testOrg = "org-1"

var coach = domain.Caller{UserID: "coach-1", OrganizationID: testOrg, Role: domain.RoleCoach}

func intPtr(v int) *int { return &v }

func task(id, label string) domain.TemplateTask {
	return domain.TemplateTask{ID: id, Label: label, Type: "task"}
}

func groupProgram(weeks ...domain.ProgramWeek) domain.Program {
	return domain.Program{
		ID:             primitive.NewObjectID(),
		OrganizationID: testOrg,
		CoachID:        coach.UserID,
		Name:           "Spring Reset",
		Type:           domain.ProgramTypeGroup,
		LengthDays:     10,
		Weeks:          weeks,
	}
}

func cohortOf(p domain.Program, startDate string) domain.ProgramCohort {
	return domain.ProgramCohort{
		ID:             primitive.NewObjectID(),
		ProgramID:      p.ID,
		OrganizationID: p.OrganizationID,
		Name:           "April",
		StartDate:      startDate,
		EndDate:        "2024-12-31",
		Status:         domain.CohortActive,
	}
}

func member(p domain.Program, c domain.ProgramCohort, userID string, status domain.EnrollmentStatus) domain.ProgramEnrollment {
	cohortID := c.ID
	return domain.ProgramEnrollment{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		ProgramID:      p.ID,
		CohortID:       &cohortID,
		OrganizationID: p.OrganizationID,
		Status:         status,
	}
}
