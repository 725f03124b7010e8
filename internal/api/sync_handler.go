package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"alcyxob/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SyncHandler struct {
	templateSyncService service.TemplateSyncService
	habitSyncService    service.HabitSyncService
	logger              *zap.Logger
}

func NewSyncHandler(templateSyncService service.TemplateSyncService, habitSyncService service.HabitSyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		templateSyncService: templateSyncService,
		habitSyncService:    habitSyncService,
		logger:              logger,
	}
}

// --- DTOs ---

// EnrollmentSelector accepts either the string "all" or an array of enrollment ids.
type EnrollmentSelector struct {
	All bool
	IDs []string
}

func (s *EnrollmentSelector) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		if v != "all" {
			return errors.New(`enrollmentIds must be "all" or an array of ids`)
		}
		s.All = true
		return nil
	}
	return json.Unmarshal(b, &s.IDs)
}

type TemplateSyncRequest struct {
	EnrollmentIDs EnrollmentSelector          `json:"enrollmentIds"`
	SyncOptions   service.TemplateSyncOptions `json:"syncOptions"`
	WeekNumbers   []int                       `json:"weekNumbers"`
}

// --- Handlers ---

// SyncTemplate godoc
// @Summary Push an individual program's week templates to client week copies
// @Description Per-enrollment failures are reported in errors and do not fail the request;
// @Description success is true, "partial" or false.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param body body TemplateSyncRequest true "Targets and sync options"
// @Success 200 {object} service.TemplateSyncResult
// @Failure 400 {object} gin.H "Validation error"
// @Failure 404 {object} gin.H "Program not found"
// @Failure 429 {object} gin.H "Rate limited"
// @Router /coach/programs/{programId}/sync-template [post]
func (h *SyncHandler) SyncTemplate(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId", "program")
	if !ok {
		return
	}
	var req TemplateSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.templateSyncService.SyncTemplate(c.Request.Context(), caller, programID, service.TemplateSyncRequest{
		AllEnrollments: req.EnrollmentIDs.All,
		EnrollmentIDs:  req.EnrollmentIDs.IDs,
		WeekNumbers:    req.WeekNumbers,
		Options:        req.SyncOptions,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to sync template")
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncHabits godoc
// @Summary Reconcile members' habits with the program's default habits
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} service.HabitSyncResult
// @Failure 404 {object} gin.H "Program not found"
// @Failure 429 {object} gin.H "Rate limited"
// @Router /coach/programs/{programId}/sync-habits [post]
func (h *SyncHandler) SyncHabits(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId", "program")
	if !ok {
		return
	}

	result, err := h.habitSyncService.SyncHabits(c.Request.Context(), caller, programID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to sync habits")
		return
	}
	c.JSON(http.StatusOK, result)
}
