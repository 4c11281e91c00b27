package main

import (
	"context"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/config"
	"github.com/carlos-juma/branch.it-IMY220/internal/handlers"
	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/internal/utils"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	db          *gorm.DB
	hub         *services.ActivityHub
	feedCache   services.FeedCache
	taskQueue   services.TaskQueue
	worker      *services.Worker
	scheduler   *services.Scheduler
	authLimiter *middleware.RateLimiter

	reconcileService *services.ReconcileService
	systemLogService *services.SystemLogService

	authHandler       *handlers.AuthHandler
	userHandler       *handlers.UserHandler
	projectHandler    *handlers.ProjectHandler
	versionHandler    *handlers.VersionHandler
	friendshipHandler *handlers.FriendshipHandler
	activityHandler   *handlers.ActivityHandler
	searchHandler     *handlers.SearchHandler
	sseHandler        *handlers.SSEHandler
	systemLogHandler  *handlers.SystemLogHandler
	reconcileHandler  *handlers.ReconcileHandler
	healthHandler     *handlers.HealthHandler
}

// newAppServices wires services and handlers on db. It starts nothing.
func newAppServices(cfg *config.Config, db *gorm.DB, hub *services.ActivityHub, cache services.FeedCache) *appServices {
	projectService := services.NewProjectService(db, cache)
	friendshipService := services.NewFriendshipService(db)
	userService := services.NewUserService(db, projectService, &cfg.JWT)
	versionService := services.NewVersionService(db, projectService, cfg.Versioning.StrictMode)
	activityService := services.NewActivityService(db, friendshipService, hub, cache)
	searchService := services.NewSearchService(db)
	reconcileService := services.NewReconcileService(db)
	systemLogService := services.NewSystemLogService(db, cfg.SystemLog.RetentionDays)

	return &appServices{
		db:          db,
		hub:         hub,
		feedCache:   cache,
		authLimiter: middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst),

		reconcileService: reconcileService,
		systemLogService: systemLogService,

		authHandler:       handlers.NewAuthHandler(userService),
		userHandler:       handlers.NewUserHandler(userService, searchService),
		projectHandler:    handlers.NewProjectHandler(projectService),
		versionHandler:    handlers.NewVersionHandler(versionService, activityService),
		friendshipHandler: handlers.NewFriendshipHandler(friendshipService),
		activityHandler:   handlers.NewActivityHandler(activityService),
		searchHandler:     handlers.NewSearchHandler(searchService),
		sseHandler:        handlers.NewSSEHandler(hub),
		systemLogHandler:  handlers.NewSystemLogHandler(systemLogService),
		reconcileHandler:  handlers.NewReconcileHandler(reconcileService),
		healthHandler:     handlers.NewHealthHandler(db, hub),
	}
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cache := services.NewFeedCache(ctx, &cfg.Redis, cfg.Activity.CacheTTLSeconds)

	app := newAppServices(cfg, db, services.GetActivityHub(), cache)
	handlers.RegisterRuntimeGauges(db, app.hub)

	// Task queue: Redis when enabled, otherwise tasks run in-process
	app.taskQueue = services.InitTaskQueue(cfg)
	if syncQueue, ok := app.taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(app.reconcileService.ProcessTask)
	}
	if app.taskQueue.IsAsync() {
		app.worker = services.InitWorker(&cfg.Redis)
		if app.worker != nil {
			app.worker.SetProcessor(app.reconcileService.ProcessTask)
			if err := app.worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start task worker")
				app.worker = nil
			}
		}
	}

	app.scheduler = services.NewScheduler(app.reconcileService, app.systemLogService, app.taskQueue)
	if err := app.scheduler.Start(&cfg.Reconcile); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	return app
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		logger.Info().Msg("Scheduler stopped")
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing task queue")
		}
	}
	if closer, ok := s.feedCache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.authLimiter.Stop()
}
