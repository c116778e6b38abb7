package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/api"
	"github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/platform/scheduler"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// appDependencies holds everything the router needs.
type appDependencies struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB

	AuthMiddleware       *middleware.AuthMiddleware
	UserHandler          *api.UserHandler
	TaskHandler          *api.TaskHandler
	CategoryHandler      *api.CategoryHandler
	CollaborationHandler *api.CollaborationHandler
	ReportHandler        *api.ReportHandler
	HealthHandler        *api.HealthHandler
}

// application wires stores, services and handlers together and owns the
// lifecycle of the HTTP server and background jobs.
type application struct {
	config    *config.Config
	logger    *slog.Logger
	db        *sql.DB
	deps      *appDependencies
	scheduler *scheduler.Scheduler
}

// newApplication builds the full dependency graph on top of an open database.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	categoryStore := postgres.NewPostgresCategoryStore(db, logger)
	collabStore := postgres.NewPostgresCollaborationStore(db, logger)
	revokedStore := postgres.NewPostgresRevokedTokenStore(db, logger)
	tx := store.NewSQLTransactor(db)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	revoker, err := auth.NewTokenRevoker(revokedStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create token revoker: %w", err)
	}

	resolver, err := service.NewPermissionResolver(collabStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create permission resolver: %w", err)
	}
	taskService, err := service.NewTaskService(taskStore, collabStore, resolver, tx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	collabService, err := service.NewCollaborationService(taskStore, collabStore, resolver, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create collaboration service: %w", err)
	}
	categoryService, err := service.NewCategoryService(categoryStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create category service: %w", err)
	}
	reportService, err := service.NewReportService(taskStore, categoryStore, userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report service: %w", err)
	}
	userService, err := service.NewUserService(userStore, jwtService, auth.NewBcryptVerifier(), revoker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	sched := scheduler.New(logger)
	if cfg.Scheduler.Enabled {
		if _, err := sched.Register(
			scheduler.TokenCleanupJobName,
			cfg.Scheduler.TokenCleanupSpec,
			scheduler.TokenCleanupJob(revoker),
		); err != nil {
			return nil, fmt.Errorf("failed to schedule token cleanup: %w", err)
		}
	}

	deps := &appDependencies{
		Config:               cfg,
		Logger:               logger,
		DB:                   db,
		AuthMiddleware:       middleware.NewAuthMiddleware(jwtService, revoker),
		UserHandler:          api.NewUserHandler(userService, &cfg.Auth, logger),
		TaskHandler:          api.NewTaskHandler(taskService, logger),
		CategoryHandler:      api.NewCategoryHandler(categoryService, logger),
		CollaborationHandler: api.NewCollaborationHandler(collabService, logger),
		ReportHandler:        api.NewReportHandler(reportService, logger),
		HealthHandler:        api.NewHealthHandler(db),
	}

	return &application{
		config:    cfg,
		logger:    logger,
		db:        db,
		deps:      deps,
		scheduler: sched,
	}, nil
}

// Run starts background jobs and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if app.config.Scheduler.Enabled {
		app.scheduler.Start()
	}

	return startHTTPServer(ctx, app.config.Server, setupRouter(app.deps), app.logger)
}

func (app *application) cleanup() {
	app.logger.Info("shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()
	if app.config.Scheduler.Enabled {
		app.scheduler.Stop(ctx)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", slog.String("error", err.Error()))
	}
}
