package api

import (
	"net/http"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProgramHandler struct {
	programService service.ProgramService
	logger         *zap.Logger
}

func NewProgramHandler(programService service.ProgramService, logger *zap.Logger) *ProgramHandler {
	return &ProgramHandler{programService: programService, logger: logger}
}

// --- DTOs ---

type CreateProgramRequest struct {
	Name            string                 `json:"name" binding:"required"`
	Description     string                 `json:"description"`
	Type            domain.ProgramType     `json:"type" binding:"required,oneof=group individual"`
	LengthDays      int                    `json:"lengthDays" binding:"gte=0"`
	IncludeWeekends bool                   `json:"includeWeekends"`
	SquadCapacity   *int                   `json:"squadCapacity"`
	DefaultHabits   []domain.HabitTemplate `json:"defaultHabits"`
	Weeks           []domain.ProgramWeek   `json:"weeks"`
}

type CreateCohortRequest struct {
	Name          string `json:"name" binding:"required"`
	StartDate     string `json:"startDate" binding:"required"`
	EndDate       string `json:"endDate" binding:"required"`
	MaxEnrollment *int   `json:"maxEnrollment"`
}

type EnrollRequest struct {
	UserID        string `json:"userId" binding:"required"`
	CohortID      string `json:"cohortId"`
	SquadID       string `json:"squadId"`
	PaymentStatus string `json:"paymentStatus" binding:"omitempty,oneof=free paid pending"`
	AmountPaid    int64  `json:"amountPaid" binding:"gte=0"`
}

// --- Programs ---

// CreateProgram godoc
// @Summary Create a program template
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateProgramRequest true "Program"
// @Success 201 {object} gin.H "{success, program}"
// @Failure 400 {object} gin.H "Validation error"
// @Router /coach/programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), caller, service.CreateProgramInput{
		Name:            req.Name,
		Description:     req.Description,
		Type:            req.Type,
		LengthDays:      req.LengthDays,
		IncludeWeekends: req.IncludeWeekends,
		SquadCapacity:   req.SquadCapacity,
		DefaultHabits:   req.DefaultHabits,
		Weeks:           req.Weeks,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to create program")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "program": program})
}

// GetProgram godoc
// @Summary Get a program template
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} gin.H "{success, program}"
// @Failure 404 {object} gin.H "Program not found"
// @Router /coach/programs/{programId} [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId", "program")
	if !ok {
		return
	}

	program, err := h.programService.GetProgram(c.Request.Context(), caller, programID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to load program")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "program": program})
}

// --- Cohorts ---

// CreateCohort godoc
// @Summary Schedule a cohort of a group program
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param body body CreateCohortRequest true "Cohort"
// @Success 201 {object} gin.H "{success, cohort}"
// @Failure 400 {object} gin.H "Validation error (dates must be YYYY-MM-DD, end not before start)"
// @Router /coach/programs/{programId}/cohorts [post]
func (h *ProgramHandler) CreateCohort(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId", "program")
	if !ok {
		return
	}
	var req CreateCohortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cohort, err := h.programService.CreateCohort(c.Request.Context(), caller, programID, service.CreateCohortInput{
		Name:          req.Name,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		MaxEnrollment: req.MaxEnrollment,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to create cohort")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "cohort": cohort})
}

// ListCohorts godoc
// @Summary List a program's cohorts
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} gin.H "{success, cohorts}"
// @Router /coach/programs/{programId}/cohorts [get]
func (h *ProgramHandler) ListCohorts(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId", "program")
	if !ok {
		return
	}

	cohorts, err := h.programService.ListCohorts(c.Request.Context(), caller, programID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to list cohorts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cohorts": cohorts})
}

// --- Enrollments ---

// Enroll godoc
// @Summary Enroll a user in a program
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param body body EnrollRequest true "Enrollment"
// @Success 201 {object} gin.H "{success, enrollment}"
// @Failure 409 {object} gin.H "Already enrolled or cohort full"
// @Router /coach/programs/{programId}/enrollments [post]
func (h *ProgramHandler) Enroll(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId", "program")
	if !ok {
		return
	}
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	enrollment, err := h.programService.Enroll(c.Request.Context(), caller, programID, service.EnrollInput{
		UserID:        req.UserID,
		CohortID:      req.CohortID,
		SquadID:       req.SquadID,
		PaymentStatus: req.PaymentStatus,
		AmountPaid:    req.AmountPaid,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to enroll user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "enrollment": enrollment})
}

// ListEnrollments godoc
// @Summary List a program's enrollments
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} gin.H "{success, enrollments}"
// @Router /coach/programs/{programId}/enrollments [get]
func (h *ProgramHandler) ListEnrollments(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId", "program")
	if !ok {
		return
	}

	enrollments, err := h.programService.ListEnrollments(c.Request.Context(), caller, programID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to list enrollments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrollments": enrollments})
}
