package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"alcyxob/coaching-platform/internal/api"
	"alcyxob/coaching-platform/internal/config"
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/logging"
	"alcyxob/coaching-platform/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// @title Coaching Platform API
// @version 1.0
// @description Program, cohort and week content management with member task sync.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "coaching-platform",
		Short:         "Coaching platform program-content service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and background scheduler",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), configPath, true, runServe)
			},
		},
		&cobra.Command{
			Use:   "resync-cohort <cohortId>",
			Short: "Re-run the member task sync for every day of a cohort",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cohortID, err := primitive.ObjectIDFromHex(args[0])
				if err != nil {
					return fmt.Errorf("invalid cohort id %q", args[0])
				}
				return withApp(cmd.Context(), configPath, false, func(ctx context.Context, a *app) error {
					counts, err := a.weekContent.ResyncCohort(ctx, domain.SystemCaller, cohortID)
					fmt.Fprintf(cmd.OutOrStdout(), "members=%d days=%d created=%d updated=%d deleted=%d\n",
						counts.MembersSynced, counts.DaysSynced, counts.TasksCreated, counts.TasksUpdated, counts.TasksDeleted)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "lifecycle",
			Short: "Apply due cohort status transitions once",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), configPath, false, func(ctx context.Context, a *app) error {
					changed := scheduler.RunCohortLifecycle(ctx, a.lifecycle, a.logger)
					fmt.Fprintf(cmd.OutOrStdout(), "cohorts changed: %d\n", changed)
					return nil
				})
			},
		},
	)
	return root
}

// withApp loads configuration, builds the logger and app, and runs fn until it
// returns or the process is interrupted.
func withApp(parent context.Context, configPath string, withStorage bool, fn func(context.Context, *app) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger, withStorage)
	if err != nil {
		logger.Error("Startup failed", zap.Error(err))
		return err
	}
	defer a.close()

	return fn(ctx, a)
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg

	// --- Scheduler ---
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler.CohortLifecycleSpec, a.lifecycle, a.logger)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	// --- Router ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	api.SetupRoutes(router, api.RouterConfig{
		JWTSecret:   cfg.Auth.JWTSecret,
		JWTIssuer:   cfg.Auth.Issuer,
		RateLimiter: api.NewOrgRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Gatherer:    a.registry,
		Metrics:     a.metrics,
		Logger:      a.logger,
	}, api.Services{
		WeekContent:  a.weekContent,
		TemplateSync: a.templateSync,
		HabitSync:    a.habitSync,
		Programs:     a.programs,
		Discover:     a.discover,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// --- Graceful Shutdown ---
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("Server exiting")
	return nil
}
