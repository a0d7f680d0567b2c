// Package main implements the entry point for the Remindly API server,
// which manages personal notes with tags, full-text filtering and one-shot
// reminders.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/remindly/remindly-api/internal/config"
	"github.com/remindly/remindly-api/internal/platform/logger"
)

func main() {
	ctx := context.Background()

	app, err := initializeApp(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		app.cleanup()
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration, sets up logging and wires the
// application dependencies.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database", databaseKind(cfg))

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}

	return app, nil
}

// databaseKind describes the configured persistence backend for startup logs
// without echoing the connection string.
func databaseKind(cfg *config.Config) string {
	if cfg.Database.URL == config.MemoryDatabaseURL {
		return "memory"
	}
	return "postgres"
}
