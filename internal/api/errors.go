package api

import (
	"errors"
	"net/http"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// respondServiceError maps service errors to HTTP responses. Anything unexpected is
// logged and surfaced as a generic 500.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, "Program not found")
	case errors.Is(err, service.ErrCohortNotFound):
		abortWithError(c, http.StatusNotFound, "Cohort not found")
	case errors.Is(err, service.ErrWeekNotFound):
		abortWithError(c, http.StatusNotFound, "Week not found")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		abortWithError(c, http.StatusNotFound, "Enrollment not found")
	case errors.Is(err, service.ErrAlreadyEnrolled), errors.Is(err, service.ErrCohortFull):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error(action,
			zap.String("path", c.Request.URL.Path),
			zap.String("requestId", c.GetString(ContextRequestIDKey)),
			zap.Error(err),
		)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// objectIDParam parses a hex ObjectID path parameter, answering 400 when malformed.
func objectIDParam(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// callerOrAbort fetches the authenticated caller, answering 401 when absent.
func callerOrAbort(c *gin.Context) (domain.Caller, bool) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return domain.Caller{}, false
	}
	return caller, true
}
