package api

import (
	"net/http"
	"strconv"

	"alcyxob/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DiscoverHandler struct {
	discoverService service.DiscoverService
	logger          *zap.Logger
}

func NewDiscoverHandler(discoverService service.DiscoverService, logger *zap.Logger) *DiscoverHandler {
	return &DiscoverHandler{discoverService: discoverService, logger: logger}
}

type CreateEventRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	Timezone      string `json:"timezone"`
	Location      string `json:"location"`
	CoverImageURL string `json:"coverImageUrl" binding:"omitempty,url"`
	Featured      bool   `json:"featured"`
}

// ListEvents godoc
// @Summary List the organization's discover events
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param upcoming query bool false "Only events starting from now"
// @Success 200 {object} gin.H "{success, events}"
// @Router /admin/discover/events [get]
func (h *DiscoverHandler) ListEvents(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	upcoming := false
	if raw := c.Query("upcoming"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "upcoming must be true or false")
			return
		}
		upcoming = v
	}

	events, err := h.discoverService.ListEvents(c.Request.Context(), caller, upcoming)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to list discover events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}

// CreateEvent godoc
// @Summary Create a discover event
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event; date-times are RFC3339"
// @Success 201 {object} gin.H "{success, event}"
// @Failure 400 {object} gin.H "Validation error"
// @Router /admin/discover/events [post]
func (h *DiscoverHandler) CreateEvent(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	event, err := h.discoverService.CreateEvent(c.Request.Context(), caller, service.CreateEventInput{
		Title:         req.Title,
		Description:   req.Description,
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
		Timezone:      req.Timezone,
		Location:      req.Location,
		CoverImageURL: req.CoverImageURL,
		Featured:      req.Featured,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to create discover event")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "event": event})
}
