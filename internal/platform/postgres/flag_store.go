package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/remindly/remindly-api/internal/platform/logger"
	"github.com/remindly/remindly-api/internal/store"
)

// PostgresFlagStore implements the store.FlagStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlagStore creates a new PostgreSQL implementation of the
// FlagStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresFlagStore(db store.DBTX, logger *slog.Logger) *PostgresFlagStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlagStore{
		db:     db,
		logger: logger.With(slog.String("component", "flag_store")),
	}
}

// Ensure PostgresFlagStore implements store.FlagStore interface
var _ store.FlagStore = (*PostgresFlagStore)(nil)

// Get implements store.FlagStore.Get
// A flag that has never been written reads as false.
func (s *PostgresFlagStore) Get(ctx context.Context, key string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT value FROM app_flags WHERE key = $1`

	var value bool
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		log.Error("failed to read flag",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return false, store.NewStoreError("flag", "get", "failed to query flag", err)
	}

	return value, nil
}

// Set implements store.FlagStore.Set
func (s *PostgresFlagStore) Set(ctx context.Context, key string, value bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO app_flags (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := s.db.ExecContext(ctx, query, key, value)
	if err != nil {
		log.Error("failed to write flag",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return store.NewStoreError("flag", "set", "failed to upsert flag", err)
	}

	log.Debug("flag written",
		slog.String("key", key),
		slog.Bool("value", value))
	return nil
}
