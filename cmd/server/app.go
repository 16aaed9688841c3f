package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ticklerhq/tickler-api/internal/config"
	"github.com/ticklerhq/tickler-api/internal/events"
	"github.com/ticklerhq/tickler-api/internal/jobs"
	"github.com/ticklerhq/tickler-api/internal/notify"
	"github.com/ticklerhq/tickler-api/internal/platform/postgres"
	"github.com/ticklerhq/tickler-api/internal/service"
	"github.com/ticklerhq/tickler-api/internal/service/auth"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// ReminderCleanupHandler reacts to task lifecycle events by dismissing the
// task's outstanding reminders and cancelling their fire jobs.
type ReminderCleanupHandler struct {
	reminderService *service.ReminderService
	logger          *slog.Logger
}

// HandleEvent processes task completion and deletion events.
func (h *ReminderCleanupHandler) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	switch event.Type {
	case events.TaskCompleted, events.TaskDeleted:
	default:
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	dismissed, err := h.reminderService.CancelForTask(ctx, event.TaskID)
	if err != nil {
		return fmt.Errorf("failed to cancel reminders for task: %w", err)
	}

	h.logger.Info("reminders cleaned up for task event",
		"event_type", event.Type,
		"task_id", event.TaskID,
		"dismissed", dismissed)
	return nil
}

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	reminderStore     store.ReminderStore
	subscriptionStore store.SubscriptionStore
	taskStore         store.TaskStore
	userStore         store.UserStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	// Notification pipeline
	tokenSigner *notify.TokenSigner
	dispatcher  *notify.Dispatcher
	scheduler   *jobs.Scheduler

	reminderService *service.ReminderService

	// Event system
	eventEmitter events.EventEmitter
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Stores
	app.reminderStore = postgres.NewPostgresReminderStore(db, logger)
	app.subscriptionStore = postgres.NewPostgresSubscriptionStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.userStore = postgres.NewPostgresUserStore(db)
	jobStore := postgres.NewPostgresJobStore(db, logger)

	// Notification pipeline: signer, channel senders, dispatcher
	app.tokenSigner = notify.NewTokenSigner(cfg.Notify.CallbackSecret)

	pushSender := notify.NewPushSender(notify.PushConfig{
		VAPIDPublicKey:  cfg.Notify.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Notify.VAPIDPrivateKey,
		Subject:         cfg.Notify.VAPIDSubject,
	}, app.subscriptionStore, logger)

	relaySender := notify.NewRelaySender(notify.RelayConfig{
		BaseURL:         cfg.Notify.RelayBaseURL,
		CallbackBaseURL: cfg.Server.PublicBaseURL,
	}, app.tokenSigner, logger)

	app.dispatcher = notify.NewDispatcher(
		app.reminderStore,
		app.subscriptionStore,
		app.taskStore,
		[]notify.ChannelSender{pushSender, relaySender},
		logger,
	)

	// Durable job scheduler
	app.scheduler = jobs.NewScheduler(jobStore, jobs.SchedulerConfig{
		RunWorker:    cfg.Scheduler.RunWorker,
		WorkerCount:  cfg.Scheduler.WorkerCount,
		PollInterval: cfg.Scheduler.PollInterval,
		BatchSize:    cfg.Scheduler.BatchSize,
		MaxAttempts:  cfg.Scheduler.MaxAttempts,
		RetryBackoff: cfg.Scheduler.RetryBackoff,
	}, logger)

	app.reminderService = service.NewReminderService(
		db,
		app.reminderStore,
		app.taskStore,
		app.scheduler,
		app.dispatcher,
		logger,
	)

	// The fire handler must be registered before the scheduler starts
	// claiming jobs left over from a previous run.
	app.scheduler.RegisterHandler(service.JobKindReminderFire, app.reminderService.HandleFireJob)
	if err := app.scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Event system: task lifecycle events dismiss the task's reminders.
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(&ReminderCleanupHandler{
		reminderService: app.reminderService,
		logger:          logger.With("component", "reminder_cleanup_handler"),
	})
	app.eventEmitter = emitter

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
