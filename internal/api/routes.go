package api

import (
	"net/http"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/metrics"
	"alcyxob/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the application services the HTTP API exposes.
type Services struct {
	WeekContent  service.WeekContentService
	TemplateSync service.TemplateSyncService
	HabitSync    service.HabitSyncService
	Programs     service.ProgramService
	Discover     service.DiscoverService
}

// RouterConfig carries the HTTP-layer settings.
type RouterConfig struct {
	JWTSecret   string
	JWTIssuer   string
	RateLimiter *OrgRateLimiter
	Gatherer    prometheus.Gatherer // Served at /metrics when set
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// SetupRoutes registers middleware and every route on router.
func SetupRoutes(router *gin.Engine, cfg RouterConfig, services Services) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	weekContentHandler := NewWeekContentHandler(services.WeekContent, logger)
	programHandler := NewProgramHandler(services.Programs, logger)
	syncHandler := NewSyncHandler(services.TemplateSync, services.HabitSync, logger)
	discoverHandler := NewDiscoverHandler(services.Discover, logger)

	router.Use(RequestID(), RequestLogger(logger, cfg.Metrics), Recovery(logger))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Fan-out endpoints share a per-organization budget
	syncLimit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimiter != nil {
		syncLimit = cfg.RateLimiter.Middleware()
	}

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	{
		protected.GET("/me", func(c *gin.Context) {
			caller, ok := callerOrAbort(c)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": caller.UserID, "organizationId": caller.OrganizationID, "role": caller.Role})
		})

		// --- Coach Routes ---
		coach := protected.Group("/coach")
		coach.Use(RoleMiddleware(domain.RoleCoach, domain.RoleAdmin))
		{
			// --- Cohort Week Content ---
			coach.GET("/cohorts/:cohortId/week-content/:weekId", weekContentHandler.GetWeekContent)
			coach.PUT("/cohorts/:cohortId/week-content/:weekId", syncLimit, weekContentHandler.UpdateWeekContent)
			coach.PATCH("/cohorts/:cohortId/week-content/:weekId", syncLimit, weekContentHandler.UpdateWeekContent)
			coach.POST("/cohorts/:cohortId/week-content/:weekId/recording-upload-url", weekContentHandler.CreateRecordingUploadURL)
			coach.POST("/cohorts/:cohortId/resync", syncLimit, weekContentHandler.ResyncCohort)

			// --- Programs ---
			coach.POST("/programs", programHandler.CreateProgram)
			coach.GET("/programs/:programId", programHandler.GetProgram)
			coach.POST("/programs/:programId/cohorts", programHandler.CreateCohort)
			coach.GET("/programs/:programId/cohorts", programHandler.ListCohorts)
			coach.POST("/programs/:programId/enrollments", programHandler.Enroll)
			coach.GET("/programs/:programId/enrollments", programHandler.ListEnrollments)

			// --- Syncs ---
			coach.POST("/programs/:programId/sync-template", syncLimit, syncHandler.SyncTemplate)
			coach.POST("/programs/:programId/sync-habits", syncLimit, syncHandler.SyncHabits)
		}

		// --- Admin Routes ---
		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.GET("/discover/events", discoverHandler.ListEvents)
			admin.POST("/discover/events", discoverHandler.CreateEvent)
		}
	}
}
