package api

import (
	"net/http"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WeekContentHandler struct {
	weekContentService service.WeekContentService
	logger             *zap.Logger
}

func NewWeekContentHandler(weekContentService service.WeekContentService, logger *zap.Logger) *WeekContentHandler {
	return &WeekContentHandler{weekContentService: weekContentService, logger: logger}
}

// --- DTOs ---

// WeekContentRequest is the body of PUT and PATCH. Absent (or null) fields are left
// unchanged on both verbs.
type WeekContentRequest struct {
	Name                *string                 `json:"name"`
	Theme               *string                 `json:"theme"`
	Description         *string                 `json:"description"`
	Tasks               *[]domain.TemplateTask  `json:"tasks"`
	CurrentFocus        *[]string               `json:"currentFocus"`
	Notes               *[]string               `json:"notes"`
	ManualNotes         *string                 `json:"manualNotes"`
	CoachRecordingURL   *string                 `json:"coachRecordingUrl"`
	CoachRecordingNotes *string                 `json:"coachRecordingNotes"`
	LinkedCallEventIDs  *[]string               `json:"linkedCallEventIds"`
	LinkedSummaryIDs    *[]string               `json:"linkedSummaryIds"`
	WeeklyHabits        *[]domain.HabitTemplate `json:"weeklyHabits"`
	WeeklyPrompt        *string                 `json:"weeklyPrompt"`
	Distribution        *domain.Distribution    `json:"distribution"`
	DistributeTasksNow  bool                    `json:"distributeTasksNow"`
}

func (r WeekContentRequest) toUpdate() service.WeekContentUpdate {
	return service.WeekContentUpdate{
		Name:                r.Name,
		Theme:               r.Theme,
		Description:         r.Description,
		Tasks:               r.Tasks,
		CurrentFocus:        r.CurrentFocus,
		Notes:               r.Notes,
		ManualNotes:         r.ManualNotes,
		CoachRecordingURL:   r.CoachRecordingURL,
		CoachRecordingNotes: r.CoachRecordingNotes,
		LinkedCallEventIDs:  r.LinkedCallEventIDs,
		LinkedSummaryIDs:    r.LinkedSummaryIDs,
		WeeklyHabits:        r.WeeklyHabits,
		WeeklyPrompt:        r.WeeklyPrompt,
		Distribution:        r.Distribution,
		DistributeTasksNow:  r.DistributeTasksNow,
	}
}

type RecordingUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// --- Handlers ---

// GetWeekContent godoc
// @Summary Get one week of a cohort's program content
// @Description weekId is matched against week numbers first, then week ids.
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Param weekId path string true "Week number or week ID"
// @Success 200 {object} gin.H "{success, instanceId, programId, cohortId, week}"
// @Failure 400 {object} gin.H "Invalid cohort ID"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Cohort, program or week not found"
// @Router /coach/cohorts/{cohortId}/week-content/{weekId} [get]
func (h *WeekContentHandler) GetWeekContent(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	cohortID, ok := objectIDParam(c, "cohortId", "cohort")
	if !ok {
		return
	}

	content, err := h.weekContentService.GetWeekContent(c.Request.Context(), caller, cohortID, c.Param("weekId"))
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to load week content")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"instanceId": content.InstanceID,
		"programId":  content.ProgramID,
		"cohortId":   content.CohortID,
		"week":       content.Week,
	})
}

// UpdateWeekContent godoc
// @Summary Update one week of a cohort's program content
// @Description Serves both PUT and PATCH with patch semantics. With distributeTasksNow the
// @Description week's tasks are distributed over its days and synced to every member.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Param weekId path string true "Week number or week ID"
// @Param body body WeekContentRequest true "Fields to change"
// @Success 200 {object} gin.H "{success, week, sync?}"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Cohort, program or week not found"
// @Failure 429 {object} gin.H "Rate limited"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/cohorts/{cohortId}/week-content/{weekId} [put]
// @Router /coach/cohorts/{cohortId}/week-content/{weekId} [patch]
func (h *WeekContentHandler) UpdateWeekContent(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	cohortID, ok := objectIDParam(c, "cohortId", "cohort")
	if !ok {
		return
	}
	var req WeekContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.weekContentService.UpdateWeekContent(c.Request.Context(), caller, cohortID, c.Param("weekId"), req.toUpdate())
	if err != nil {
		if result != nil {
			// Week was saved; only the member sync failed. Re-running the update resumes it.
			h.logger.Error("Member sync after week update failed",
				zap.String("cohortId", cohortID.Hex()),
				zap.String("weekId", result.Week.ID),
				zap.Any("sync", result.Sync),
				zap.Error(err),
			)
			abortWithError(c, http.StatusInternalServerError, "Week saved but member sync failed; retry to resume")
			return
		}
		respondServiceError(c, h.logger, err, "Failed to update week content")
		return
	}

	body := gin.H{
		"success":    true,
		"instanceId": result.InstanceID,
		"programId":  result.ProgramID,
		"cohortId":   result.CohortID,
		"week":       result.Week,
	}
	if result.Sync != nil {
		body["sync"] = result.Sync
	}
	c.JSON(http.StatusOK, body)
}

// CreateRecordingUploadURL godoc
// @Summary Get a presigned URL for uploading a week recording
// @Description Upload with PUT and the same Content-Type, then PATCH coachRecordingUrl.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Param weekId path string true "Week number or week ID"
// @Param body body RecordingUploadRequest true "Recording content type"
// @Success 200 {object} service.RecordingUpload
// @Failure 400 {object} gin.H "Validation error"
// @Failure 404 {object} gin.H "Cohort, program or week not found"
// @Router /coach/cohorts/{cohortId}/week-content/{weekId}/recording-upload-url [post]
func (h *WeekContentHandler) CreateRecordingUploadURL(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	cohortID, ok := objectIDParam(c, "cohortId", "cohort")
	if !ok {
		return
	}
	var req RecordingUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	upload, err := h.weekContentService.RequestRecordingUpload(c.Request.Context(), caller, cohortID, c.Param("weekId"), req.ContentType)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to create recording upload URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"uploadUrl":    upload.UploadURL,
		"objectKey":    upload.ObjectKey,
		"recordingUrl": upload.RecordingURL,
		"expiresAt":    upload.ExpiresAt,
	})
}

// ResyncCohort godoc
// @Summary Re-run the member task sync for every day of a cohort
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param cohortId path string true "Cohort ID"
// @Success 200 {object} gin.H "{success, sync}"
// @Failure 404 {object} gin.H "Cohort or program not found"
// @Failure 429 {object} gin.H "Rate limited"
// @Router /coach/cohorts/{cohortId}/resync [post]
func (h *WeekContentHandler) ResyncCohort(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	cohortID, ok := objectIDParam(c, "cohortId", "cohort")
	if !ok {
		return
	}

	counts, err := h.weekContentService.ResyncCohort(c.Request.Context(), caller, cohortID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to resync cohort")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sync": counts})
}
