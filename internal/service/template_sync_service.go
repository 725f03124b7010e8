package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/metrics"
	"alcyxob/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TemplateSyncOptions selects which field groups a template sync copies into client
// weeks. Unset sync flags mean "sync".
type TemplateSyncOptions struct {
	SyncTasks           *bool `json:"syncTasks,omitempty"`
	SyncFocus           *bool `json:"syncFocus,omitempty"`
	SyncNotes           *bool `json:"syncNotes,omitempty"`
	SyncHabits          *bool `json:"syncHabits,omitempty"`
	SyncPrompt          *bool `json:"syncPrompt,omitempty"`
	SyncName            *bool `json:"syncName,omitempty"`
	SyncTheme           *bool `json:"syncTheme,omitempty"`
	PreserveClientLinks *bool `json:"preserveClientLinks,omitempty"`
	PreserveManualNotes *bool `json:"preserveManualNotes,omitempty"`
	PreserveRecordings  *bool `json:"preserveRecordings,omitempty"`
}

// ResolvedSyncOptions is TemplateSyncOptions with defaults applied.
type ResolvedSyncOptions struct {
	SyncTasks           bool
	SyncFocus           bool
	SyncNotes           bool
	SyncHabits          bool
	SyncPrompt          bool
	SyncName            bool
	SyncTheme           bool
	PreserveClientLinks bool
	PreserveManualNotes bool
	PreserveRecordings  bool
}

// Preserve defaults: client-owned links are kept, coach notes and recordings follow
// the template.
const (
	defaultPreserveClientLinks = true
	defaultPreserveManualNotes = false
	defaultPreserveRecordings  = false
)

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Resolve applies defaults.
func (o TemplateSyncOptions) Resolve() ResolvedSyncOptions {
	return ResolvedSyncOptions{
		SyncTasks:           flag(o.SyncTasks, true),
		SyncFocus:           flag(o.SyncFocus, true),
		SyncNotes:           flag(o.SyncNotes, true),
		SyncHabits:          flag(o.SyncHabits, true),
		SyncPrompt:          flag(o.SyncPrompt, true),
		SyncName:            flag(o.SyncName, true),
		SyncTheme:           flag(o.SyncTheme, true),
		PreserveClientLinks: flag(o.PreserveClientLinks, defaultPreserveClientLinks),
		PreserveManualNotes: flag(o.PreserveManualNotes, defaultPreserveManualNotes),
		PreserveRecordings:  flag(o.PreserveRecordings, defaultPreserveRecordings),
	}
}

// TemplateSyncRequest selects the enrollments and weeks to sync. AllEnrollments
// targets every active or upcoming enrollment of the program and wins over
// EnrollmentIDs. Empty WeekNumbers means every template week.
type TemplateSyncRequest struct {
	AllEnrollments bool
	EnrollmentIDs  []string
	WeekNumbers    []int
	Options        TemplateSyncOptions
}

// SyncOutcome is the overall result of a batch operation. It encodes to JSON as
// true, "partial" or false.
type SyncOutcome int

const (
	OutcomeFailed SyncOutcome = iota
	OutcomePartial
	OutcomeSuccess
)

func (o SyncOutcome) MarshalJSON() ([]byte, error) {
	switch o {
	case OutcomeSuccess:
		return []byte("true"), nil
	case OutcomePartial:
		return []byte(`"partial"`), nil
	default:
		return []byte("false"), nil
	}
}

func (o *SyncOutcome) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true":
		*o = OutcomeSuccess
	case `"partial"`:
		*o = OutcomePartial
	case "false":
		*o = OutcomeFailed
	default:
		return fmt.Errorf("invalid sync outcome %s", b)
	}
	return nil
}

func outcomeOf(errCount, updated int) SyncOutcome {
	switch {
	case errCount == 0:
		return OutcomeSuccess
	case updated > 0:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}

// EnrollmentError is one enrollment that could not be synced.
type EnrollmentError struct {
	EnrollmentID string `json:"enrollmentId"`
	Error        string `json:"error"`
}

// TemplateSyncResult summarises a template sync.
type TemplateSyncResult struct {
	Success        SyncOutcome       `json:"success"`
	ClientsUpdated int               `json:"clientsUpdated"`
	WeeksCreated   int               `json:"weeksCreated"`
	WeeksUpdated   int               `json:"weeksUpdated"`
	Errors         []EnrollmentError `json:"errors,omitempty"`
}

// TemplateSyncService pushes an individual program's week templates into clients'
// personal week copies.
type TemplateSyncService interface {
	SyncTemplate(ctx context.Context, caller domain.Caller, programID primitive.ObjectID, req TemplateSyncRequest) (*TemplateSyncResult, error)
}

type templateSyncService struct {
	programRepo    repository.ProgramRepository
	legacyRepo     repository.LegacyWeekRepository
	enrollmentRepo repository.EnrollmentRepository
	clientWeekRepo repository.ClientWeekRepository
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewTemplateSyncService creates a new TemplateSyncService.
func NewTemplateSyncService(
	programRepo repository.ProgramRepository,
	legacyRepo repository.LegacyWeekRepository,
	enrollmentRepo repository.EnrollmentRepository,
	clientWeekRepo repository.ClientWeekRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) TemplateSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &templateSyncService{
		programRepo:    programRepo,
		legacyRepo:     legacyRepo,
		enrollmentRepo: enrollmentRepo,
		clientWeekRepo: clientWeekRepo,
		metrics:        m,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// positionedWeek is a template week with its resolved day range.
type positionedWeek struct {
	domain.ProgramWeek
	start, end int
}

func (s *templateSyncService) SyncTemplate(ctx context.Context, caller domain.Caller, programID primitive.ObjectID, req TemplateSyncRequest) (*TemplateSyncResult, error) {
	if !req.AllEnrollments && len(req.EnrollmentIDs) == 0 {
		return nil, validationError(`enrollmentIds must be "all" or a non-empty list`)
	}

	// 1. Program and its template weeks
	program, err := loadProgram(ctx, s.programRepo, caller, programID)
	if err != nil {
		return nil, err
	}
	if program.IsGroup() {
		return nil, validationError("template sync applies to individual programs; group programs sync through cohort week content")
	}
	weeks, err := s.templateWeeks(ctx, program, req.WeekNumbers)
	if err != nil {
		return nil, err
	}

	// 2. Targets; lookup failures become per-enrollment errors
	result := &TemplateSyncResult{}
	targets, err := s.resolveTargets(ctx, program, req, result)
	if err != nil {
		return nil, err
	}

	// 3. One batch per enrollment
	opts := req.Options.Resolve()
	for i := range targets {
		enrollment := &targets[i]
		created, updated, err := s.syncEnrollment(ctx, enrollment, weeks, opts)
		if err != nil {
			s.metrics.TemplateSyncClient("failed")
			s.logger.Warn("Template sync failed for enrollment",
				zap.String("programId", program.ID.Hex()),
				zap.String("enrollmentId", enrollment.ID.Hex()),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, EnrollmentError{EnrollmentID: enrollment.ID.Hex(), Error: err.Error()})
			continue
		}
		s.metrics.TemplateSyncClient("updated")
		result.ClientsUpdated++
		result.WeeksCreated += created
		result.WeeksUpdated += updated
	}

	result.Success = outcomeOf(len(result.Errors), result.ClientsUpdated)
	s.logger.Info("Template sync finished",
		zap.String("programId", program.ID.Hex()),
		zap.Int("clientsUpdated", result.ClientsUpdated),
		zap.Int("weeksCreated", result.WeeksCreated),
		zap.Int("weeksUpdated", result.WeeksUpdated),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *templateSyncService) templateWeeks(ctx context.Context, program *domain.Program, weekNumbers []int) ([]positionedWeek, error) {
	source := program.Weeks
	if len(source) == 0 {
		legacy, err := s.legacyRepo.ListByProgram(ctx, program.ID)
		if err != nil {
			return nil, fmt.Errorf("loading legacy weeks for program %s: %w", program.ID.Hex(), err)
		}
		for _, w := range legacy {
			source = append(source, w.Template())
		}
	}

	wanted := make(map[int]bool, len(weekNumbers))
	for _, n := range weekNumbers {
		wanted[n] = true
	}
	var weeks []positionedWeek
	for i, w := range orderedTemplateWeeks(source) {
		if w.WeekNumber == 0 {
			w.WeekNumber = i + 1
		}
		if len(wanted) > 0 && !wanted[w.WeekNumber] {
			continue
		}
		start, end := templateWeekRange(program, w, i)
		weeks = append(weeks, positionedWeek{ProgramWeek: w, start: start, end: end})
	}
	return weeks, nil
}

func (s *templateSyncService) resolveTargets(ctx context.Context, program *domain.Program, req TemplateSyncRequest, result *TemplateSyncResult) ([]domain.ProgramEnrollment, error) {
	if req.AllEnrollments {
		enrollments, err := s.enrollmentRepo.ListByProgram(ctx, program.ID, domain.SyncableEnrollmentStatuses)
		if err != nil {
			return nil, fmt.Errorf("listing enrollments for program %s: %w", program.ID.Hex(), err)
		}
		return enrollments, nil
	}

	seen := make(map[string]bool, len(req.EnrollmentIDs))
	var targets []domain.ProgramEnrollment
	for _, raw := range req.EnrollmentIDs {
		if seen[raw] {
			continue
		}
		seen[raw] = true

		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			result.Errors = append(result.Errors, EnrollmentError{EnrollmentID: raw, Error: "invalid enrollment id"})
			continue
		}
		enrollment, err := s.enrollmentRepo.GetByID(ctx, id)
		if err != nil {
			msg := ErrEnrollmentNotFound.Error()
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("Loading enrollment for template sync failed", zap.String("enrollmentId", raw), zap.Error(err))
				msg = fmt.Sprintf("loading enrollment: %v", err)
			}
			result.Errors = append(result.Errors, EnrollmentError{EnrollmentID: raw, Error: msg})
			continue
		}
		if enrollment.ProgramID != program.ID {
			result.Errors = append(result.Errors, EnrollmentError{EnrollmentID: raw, Error: "enrollment does not belong to this program"})
			continue
		}
		targets = append(targets, *enrollment)
	}
	return targets, nil
}

func (s *templateSyncService) syncEnrollment(ctx context.Context, enrollment *domain.ProgramEnrollment, weeks []positionedWeek, opts ResolvedSyncOptions) (created, updated int, err error) {
	existing, err := s.clientWeekRepo.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return 0, 0, err
	}
	byWeekID := make(map[string]*domain.ClientProgramWeek, len(existing))
	byNumber := make(map[int]*domain.ClientProgramWeek, len(existing))
	for i := range existing {
		cw := &existing[i]
		if cw.ProgramWeekID != "" {
			byWeekID[cw.ProgramWeekID] = cw
		}
		if _, ok := byNumber[cw.WeekNumber]; !ok {
			byNumber[cw.WeekNumber] = cw
		}
	}

	now := s.now()
	var batch domain.ClientWeekBatch
	used := make(map[primitive.ObjectID]bool, len(existing))
	for _, w := range weeks {
		cw := byWeekID[w.ID]
		if cw == nil {
			cw = byNumber[w.WeekNumber]
		}
		if cw != nil && !used[cw.ID] {
			used[cw.ID] = true
			batch.Replaces = append(batch.Replaces, MergeClientWeek(*cw, w.ProgramWeek, w.start, w.end, opts, now))
			continue
		}
		batch.Creates = append(batch.Creates, NewClientWeek(enrollment, w.ProgramWeek, w.start, w.end, now))
	}

	if len(batch.Creates) == 0 && len(batch.Replaces) == 0 {
		return 0, 0, nil
	}
	if err := s.clientWeekRepo.ApplyBatch(ctx, batch); err != nil {
		return 0, 0, err
	}
	return len(batch.Creates), len(batch.Replaces), nil
}

// NewClientWeek copies a template week into a fresh client week. Client-only
// fields (linked calls and summaries) start empty.
func NewClientWeek(enrollment *domain.ProgramEnrollment, tpl domain.ProgramWeek, start, end int, now time.Time) domain.ClientProgramWeek {
	cw := domain.ClientProgramWeek{
		EnrollmentID:   enrollment.ID,
		ProgramID:      enrollment.ProgramID,
		UserID:         enrollment.UserID,
		OrganizationID: enrollment.OrganizationID,
		CreatedAt:      now,
	}
	refreshPosition(&cw, tpl, start, end)
	cw.Name = tpl.Name
	cw.Theme = tpl.Theme
	cw.Description = tpl.Description
	cw.Tasks = NormalizeTemplateTasks(tpl.Tasks)
	cw.Distribution = tpl.Distribution
	cw.CurrentFocus = tpl.CurrentFocus
	cw.Notes = tpl.Notes
	cw.ManualNotes = tpl.ManualNotes
	cw.CoachRecordingURL = tpl.CoachRecordingURL
	cw.CoachRecordingNotes = tpl.CoachRecordingNotes
	cw.LinkedCallEventIDs = []string{}
	cw.LinkedSummaryIDs = []string{}
	cw.WeeklyHabits = tpl.WeeklyHabits
	cw.WeeklyPrompt = tpl.WeeklyPrompt
	cw.LastSyncedAt = &now
	cw.UpdatedAt = now
	return cw
}

// MergeClientWeek copies the enabled field groups of tpl into cw. Positional fields
// are always refreshed; preserve flags win over their group's sync flag.
func MergeClientWeek(cw domain.ClientProgramWeek, tpl domain.ProgramWeek, start, end int, opts ResolvedSyncOptions, now time.Time) domain.ClientProgramWeek {
	refreshPosition(&cw, tpl, start, end)

	if opts.SyncName {
		cw.Name = tpl.Name
	}
	if opts.SyncTheme {
		cw.Theme = tpl.Theme
		cw.Description = tpl.Description
	}
	if opts.SyncTasks {
		cw.Tasks = NormalizeTemplateTasks(tpl.Tasks)
		cw.Distribution = tpl.Distribution
	}
	if opts.SyncFocus {
		cw.CurrentFocus = tpl.CurrentFocus
	}
	if opts.SyncNotes {
		cw.Notes = tpl.Notes
		if !opts.PreserveManualNotes {
			cw.ManualNotes = tpl.ManualNotes
		}
		if !opts.PreserveRecordings {
			cw.CoachRecordingURL = tpl.CoachRecordingURL
			cw.CoachRecordingNotes = tpl.CoachRecordingNotes
		}
	}
	if opts.SyncHabits {
		cw.WeeklyHabits = tpl.WeeklyHabits
	}
	if opts.SyncPrompt {
		cw.WeeklyPrompt = tpl.WeeklyPrompt
	}
	if !opts.PreserveClientLinks {
		cw.LinkedCallEventIDs = tpl.LinkedCallEventIDs
		cw.LinkedSummaryIDs = tpl.LinkedSummaryIDs
	}

	cw.LastSyncedAt = &now
	cw.UpdatedAt = now
	return cw
}

func refreshPosition(cw *domain.ClientProgramWeek, tpl domain.ProgramWeek, start, end int) {
	cw.ProgramWeekID = tpl.ID
	cw.WeekNumber = tpl.WeekNumber
	cw.ModuleID = tpl.ModuleID
	cw.Order = tpl.Order
	cw.StartDayIndex = start
	cw.EndDayIndex = end
}
