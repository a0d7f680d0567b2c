package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/remindly/remindly-api/internal/config"
	"github.com/remindly/remindly-api/internal/events"
	"github.com/remindly/remindly-api/internal/platform/memory"
	"github.com/remindly/remindly-api/internal/platform/postgres"
	"github.com/remindly/remindly-api/internal/scheduler"
	"github.com/remindly/remindly-api/internal/service"
	"github.com/remindly/remindly-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the in-memory backend is configured.
	db *sql.DB

	noteStore store.NoteStore
	flagStore store.FlagStore

	sched       *scheduler.LocalScheduler
	emitter     *events.InMemoryEmitter
	noteService service.NoteService
}

// viewChangeLogger logs view-change events. It stands in for the UI
// subscription an on-device client would register.
type viewChangeLogger struct {
	logger *slog.Logger
}

// HandleEvent implements events.Handler.
func (h *viewChangeLogger) HandleEvent(ctx context.Context, event *events.ViewChangedEvent) error {
	attrs := []any{"reason", event.Reason, "event_id", event.ID}
	if event.NoteID != uuid.Nil {
		attrs = append(attrs, "note_id", event.NoteID)
	}
	h.logger.Debug("view changed", attrs...)
	return nil
}

// newApplication creates a new application instance with all dependencies
// initialized: stores for the configured backend, the reminder scheduler,
// the event emitter and the note service. It also runs migrations, seeds
// sample data and loads the initial working set.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if cfg.Database.URL == config.MemoryDatabaseURL {
		app.noteStore = memory.NewMemoryNoteStore()
		app.flagStore = memory.NewMemoryFlagStore()
		logger.Info("Using in-memory stores, data will not survive restarts")
	} else {
		db, err := setupAppDatabase(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up database: %w", err)
		}
		app.db = db

		if err := runMigrations(db, logger); err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		app.noteStore = postgres.NewPostgresNoteStore(db, logger)
		app.flagStore = postgres.NewPostgresFlagStore(db, logger)
	}

	// The prompter grants permission whenever the configured initial state
	// is undetermined; a real deployment would put an actual consent flow
	// here.
	app.sched = scheduler.NewLocalScheduler(
		scheduler.LocalSchedulerConfig{
			InitialPermission: scheduler.Permission(cfg.Scheduler.Permission),
			DispatchBuffer:    cfg.Scheduler.DispatchBuffer,
		},
		scheduler.PrompterFunc(func(ctx context.Context) bool { return true }),
		scheduler.NewLogNotifier(logger),
		logger,
	)
	app.sched.Start()

	app.emitter = events.NewInMemoryEmitter(logger)
	app.emitter.RegisterHandler(&viewChangeLogger{
		logger: logger.With("component", "view_change_logger"),
	})

	noteService, err := service.NewNoteService(
		app.noteStore,
		app.flagStore,
		app.sched,
		app.emitter,
		logger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create note service: %w", err)
	}
	app.noteService = noteService

	if err := app.noteService.SeedSampleData(ctx); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to seed sample data: %w", err)
	}

	if err := app.noteService.LoadAll(ctx); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	logger.Info("Application initialized successfully")
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
	if app.sched != nil {
		app.sched.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
