package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/coaching-platform/internal/config"
	"alcyxob/coaching-platform/internal/metrics"
	"alcyxob/coaching-platform/internal/repository/mongo"
	"alcyxob/coaching-platform/internal/service"
	"alcyxob/coaching-platform/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	client   *mongodriver.Client

	weekContent  service.WeekContentService
	templateSync service.TemplateSyncService
	habitSync    service.HabitSyncService
	programs     service.ProgramService
	discover     service.DiscoverService
	lifecycle    service.CohortLifecycleService
}

// newApp connects to MongoDB and wires repositories and services.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, withStorage bool) (*app, error) {
	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- Database Connection ---
	client, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	db := client.Database(cfg.Database.Name)
	logger.Info("Database connection established", zap.String("database", cfg.Database.Name))

	// Sync batches are only atomic inside a transaction
	if cfg.Database.Transactions {
		ok, err := mongo.SupportsTransactions(ctx, client)
		if err != nil {
			_ = mongo.DisconnectDB(client)
			return nil, fmt.Errorf("checking transaction support: %w", err)
		}
		if !ok {
			_ = mongo.DisconnectDB(client)
			return nil, errors.New("database.transactions requires a replica set or sharded cluster; set DATABASE_TRANSACTIONS=false to run with non-atomic sync batches")
		}
	} else {
		logger.Warn("MongoDB transactions disabled; a failed sync batch can leave a member-day or enrollment partially written")
	}

	indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(indexCtx, db, logger); err != nil {
		_ = mongo.DisconnectDB(client)
		return nil, fmt.Errorf("ensuring indexes: %w", err)
	}

	// --- Storage (optional) ---
	var fileStorage storage.FileStorage
	if withStorage && cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, logger)
		if err != nil {
			_ = mongo.DisconnectDB(client)
			return nil, fmt.Errorf("initializing S3 storage: %w", err)
		}
	} else if withStorage {
		logger.Warn("S3 bucket not configured; recording uploads are disabled")
	}

	// --- Repositories ---
	programRepo := mongo.NewMongoProgramRepository(db)
	legacyWeekRepo := mongo.NewMongoLegacyWeekRepository(db)
	cohortRepo := mongo.NewMongoCohortRepository(db)
	instanceRepo := mongo.NewMongoInstanceRepository(db)
	enrollmentRepo := mongo.NewMongoEnrollmentRepository(db)
	taskRepo := mongo.NewMongoTaskRepository(db, cfg.Database.Transactions)
	clientWeekRepo := mongo.NewMongoClientWeekRepository(db, cfg.Database.Transactions)
	habitRepo := mongo.NewMongoHabitRepository(db, cfg.Database.Transactions)
	eventRepo := mongo.NewMongoDiscoverEventRepository(db)

	// --- Services ---
	instances := service.NewInstanceService(instanceRepo, legacyWeekRepo, m, logger)
	memberSync := service.NewMemberSyncService(enrollmentRepo, taskRepo, cfg.Sync.MemberConcurrency, m, logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		registry:     registry,
		metrics:      m,
		client:       client,
		weekContent:  service.NewWeekContentService(programRepo, cohortRepo, instanceRepo, instances, memberSync, fileStorage, logger),
		templateSync: service.NewTemplateSyncService(programRepo, legacyWeekRepo, enrollmentRepo, clientWeekRepo, m, logger),
		habitSync:    service.NewHabitSyncService(programRepo, enrollmentRepo, habitRepo, m, logger),
		programs:     service.NewProgramService(programRepo, cohortRepo, enrollmentRepo, logger),
		discover:     service.NewDiscoverService(eventRepo, logger),
		lifecycle:    service.NewCohortLifecycleService(cohortRepo, m, logger),
	}, nil
}

func (a *app) close() {
	a.logger.Info("Disconnecting MongoDB...")
	if err := mongo.DisconnectDB(a.client); err != nil {
		a.logger.Error("Failed to disconnect MongoDB", zap.Error(err))
	}
}
