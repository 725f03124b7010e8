package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"alcyxob/coaching-platform/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RecordingUploadExpiry is how long a recording upload URL stays valid.
const RecordingUploadExpiry = 30 * time.Minute

// WeekContent is one week of a cohort instance.
type WeekContent struct {
	InstanceID primitive.ObjectID  `json:"instanceId"`
	ProgramID  primitive.ObjectID  `json:"programId"`
	CohortID   primitive.ObjectID  `json:"cohortId"`
	Week       domain.InstanceWeek `json:"week"`
}

// WeekContentUpdate carries the fields a coach may change on a week. Nil fields are
// left untouched.
type WeekContentUpdate struct {
	Name                *string
	Theme               *string
	Description         *string
	Tasks               *[]domain.TemplateTask
	CurrentFocus        *[]string
	Notes               *[]string
	ManualNotes         *string
	CoachRecordingURL   *string
	CoachRecordingNotes *string
	LinkedCallEventIDs  *[]string
	LinkedSummaryIDs    *[]string
	WeeklyHabits        *[]domain.HabitTemplate
	WeeklyPrompt        *string
	Distribution        *domain.Distribution
	DistributeTasksNow  bool
}

// WeekContentResult is the outcome of an update. Sync is set when tasks were
// distributed and pushed to members.
type WeekContentResult struct {
	WeekContent
	Sync *SyncCounts
}

// RecordingUpload describes where a coach uploads a week recording.
type RecordingUpload struct {
	UploadURL    string    `json:"uploadUrl"`
	ObjectKey    string    `json:"objectKey"`
	RecordingURL string    `json:"recordingUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// WeekContentService lets coaches read and edit the weeks of a cohort's instance.
type WeekContentService interface {
	GetWeekContent(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID, weekRef string) (*WeekContent, error)
	// UpdateWeekContent applies the non-nil fields of upd to the week, persists the
	// instance and, when DistributeTasksNow is set, distributes the week's tasks and
	// syncs every day to the cohort's members. A sync failure is returned together
	// with the saved week.
	UpdateWeekContent(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID, weekRef string, upd WeekContentUpdate) (*WeekContentResult, error)
	RequestRecordingUpload(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID, weekRef, contentType string) (*RecordingUpload, error)
	// ResyncCohort pushes every day of the cohort's instance to its members again.
	ResyncCohort(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID) (SyncCounts, error)
}

type weekContentService struct {
	programRepo  repository.ProgramRepository
	cohortRepo   repository.CohortRepository
	instanceRepo repository.InstanceRepository
	instances    InstanceService
	memberSync   MemberSyncService
	fileStorage  storage.FileStorage
	logger       *zap.Logger
}

// NewWeekContentService creates a new WeekContentService. fileStorage may be nil, in
// which case recording uploads are unavailable.
func NewWeekContentService(
	programRepo repository.ProgramRepository,
	cohortRepo repository.CohortRepository,
	instanceRepo repository.InstanceRepository,
	instances InstanceService,
	memberSync MemberSyncService,
	fileStorage storage.FileStorage,
	logger *zap.Logger,
) WeekContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &weekContentService{
		programRepo:  programRepo,
		cohortRepo:   cohortRepo,
		instanceRepo: instanceRepo,
		instances:    instances,
		memberSync:   memberSync,
		fileStorage:  fileStorage,
		logger:       logger,
	}
}

type cohortContext struct {
	program  *domain.Program
	cohort   *domain.ProgramCohort
	instance *domain.ProgramInstance
}

func (s *weekContentService) load(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID) (*cohortContext, error) {
	cohort, err := loadCohort(ctx, s.cohortRepo, caller, cohortID)
	if err != nil {
		return nil, err
	}
	program, err := loadProgram(ctx, s.programRepo, caller, cohort.ProgramID)
	if err != nil {
		return nil, err
	}
	instance, err := s.instances.ResolveCohortInstance(ctx, program, cohort)
	if err != nil {
		return nil, err
	}
	return &cohortContext{program: program, cohort: cohort, instance: instance}, nil
}

func (cc *cohortContext) content(weekIdx int) WeekContent {
	return WeekContent{
		InstanceID: cc.instance.ID,
		ProgramID:  cc.program.ID,
		CohortID:   cc.cohort.ID,
		Week:       cc.instance.Weeks[weekIdx],
	}
}

func (cc *cohortContext) target() SyncTarget {
	return SyncTarget{
		InstanceID:     cc.instance.ID,
		ProgramID:      cc.program.ID,
		CohortID:       cc.cohort.ID,
		OrganizationID: cc.instance.OrganizationID,
	}
}

func (s *weekContentService) GetWeekContent(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID, weekRef string) (*WeekContent, error) {
	cc, err := s.load(ctx, caller, cohortID)
	if err != nil {
		return nil, err
	}
	idx := cc.instance.FindWeek(weekRef)
	if idx < 0 {
		return nil, ErrWeekNotFound
	}
	content := cc.content(idx)
	return &content, nil
}

func (s *weekContentService) UpdateWeekContent(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID, weekRef string, upd WeekContentUpdate) (*WeekContentResult, error) {
	// 1. Validate input before touching storage
	if upd.Tasks != nil {
		if err := ValidateTemplateTasks(*upd.Tasks); err != nil {
			return nil, err
		}
	}
	if upd.Distribution != nil && !upd.Distribution.Valid() {
		return nil, validationError(fmt.Sprintf("unknown distribution %q", *upd.Distribution))
	}

	// 2. Locate the week
	cc, err := s.load(ctx, caller, cohortID)
	if err != nil {
		return nil, err
	}
	idx := cc.instance.FindWeek(weekRef)
	if idx < 0 {
		return nil, ErrWeekNotFound
	}

	// 3. Apply and optionally distribute
	week := &cc.instance.Weeks[idx]
	applyWeekUpdate(week, upd)
	if upd.DistributeTasksNow {
		DistributeWeekTasks(week, week.Distribution)
	}

	// 4. Persist the whole weeks array
	if err := s.instanceRepo.UpdateWeeks(ctx, cc.instance.ID, cc.instance.Weeks); err != nil {
		return nil, fmt.Errorf("saving week %s of instance %s: %w", week.ID, cc.instance.ID.Hex(), err)
	}
	s.logger.Info("Week content updated",
		zap.String("cohortId", cc.cohort.ID.Hex()),
		zap.String("weekId", week.ID),
		zap.Int("weekNumber", week.WeekNumber),
		zap.Bool("distributed", upd.DistributeTasksNow),
		zap.String("by", caller.UserID),
	)

	result := &WeekContentResult{WeekContent: cc.content(idx)}
	if !upd.DistributeTasksNow {
		return result, nil
	}

	// 5. Push the distributed days to members
	counts, err := s.memberSync.SyncDays(ctx, cc.target(), weekDaySyncs(cc, *week))
	result.Sync = &counts
	if err != nil {
		return result, fmt.Errorf("syncing week %d to members: %w", week.WeekNumber, err)
	}
	return result, nil
}

func (s *weekContentService) RequestRecordingUpload(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID, weekRef, contentType string) (*RecordingUpload, error) {
	media, subtype, _ := strings.Cut(contentType, "/")
	if (media != "video" && media != "audio") || subtype == "" {
		return nil, validationError("contentType must be a video/* or audio/* type")
	}
	if s.fileStorage == nil {
		return nil, fmt.Errorf("recording uploads are not configured")
	}

	cc, err := s.load(ctx, caller, cohortID)
	if err != nil {
		return nil, err
	}
	idx := cc.instance.FindWeek(weekRef)
	if idx < 0 {
		return nil, ErrWeekNotFound
	}

	ext := contentType[strings.Index(contentType, "/")+1:]
	if i := strings.IndexAny(ext, ";+ "); i >= 0 {
		ext = ext[:i]
	}
	objectKey := path.Join("recordings", cc.cohort.OrganizationID, cc.cohort.ID.Hex(), cc.instance.Weeks[idx].ID, uuid.NewString()+"."+ext)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, RecordingUploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("presigning recording upload: %w", err)
	}
	return &RecordingUpload{
		UploadURL:    uploadURL,
		ObjectKey:    objectKey,
		RecordingURL: s.fileStorage.ObjectURL(objectKey),
		ExpiresAt:    time.Now().UTC().Add(RecordingUploadExpiry),
	}, nil
}

func (s *weekContentService) ResyncCohort(ctx context.Context, caller domain.Caller, cohortID primitive.ObjectID) (SyncCounts, error) {
	cc, err := s.load(ctx, caller, cohortID)
	if err != nil {
		return SyncCounts{}, err
	}
	var days []DaySync
	for _, week := range cc.instance.Weeks {
		days = append(days, weekDaySyncs(cc, week)...)
	}
	return s.memberSync.SyncDays(ctx, cc.target(), days)
}

func weekDaySyncs(cc *cohortContext, week domain.InstanceWeek) []DaySync {
	days := make([]DaySync, 0, len(week.Days))
	for _, d := range week.Days {
		date := d.CalendarDate
		if date == "" && cc.cohort.StartDate != "" {
			// Instances created before the cohort had a start date carry no dates.
			date, _ = CalendarDateForDay(cc.cohort.StartDate, d.DayIndex, cc.program.IncludeWeekends)
		}
		days = append(days, DaySync{DayIndex: d.DayIndex, Tasks: d.Tasks, CalendarDate: date})
	}
	return days
}

func applyWeekUpdate(week *domain.InstanceWeek, upd WeekContentUpdate) {
	if upd.Name != nil {
		week.Name = *upd.Name
	}
	if upd.Theme != nil {
		week.Theme = *upd.Theme
	}
	if upd.Description != nil {
		week.Description = *upd.Description
	}
	if upd.Tasks != nil {
		week.Tasks = NormalizeTemplateTasks(*upd.Tasks)
	}
	if upd.CurrentFocus != nil {
		week.CurrentFocus = *upd.CurrentFocus
	}
	if upd.Notes != nil {
		week.Notes = *upd.Notes
	}
	if upd.ManualNotes != nil {
		week.ManualNotes = *upd.ManualNotes
	}
	if upd.CoachRecordingURL != nil {
		week.CoachRecordingURL = *upd.CoachRecordingURL
	}
	if upd.CoachRecordingNotes != nil {
		week.CoachRecordingNotes = *upd.CoachRecordingNotes
	}
	if upd.LinkedCallEventIDs != nil {
		week.LinkedCallEventIDs = *upd.LinkedCallEventIDs
	}
	if upd.LinkedSummaryIDs != nil {
		week.LinkedSummaryIDs = *upd.LinkedSummaryIDs
	}
	if upd.WeeklyHabits != nil {
		week.WeeklyHabits = *upd.WeeklyHabits
	}
	if upd.WeeklyPrompt != nil {
		week.WeeklyPrompt = *upd.WeeklyPrompt
	}
	if upd.Distribution != nil {
		week.Distribution = *upd.Distribution
	}
}
