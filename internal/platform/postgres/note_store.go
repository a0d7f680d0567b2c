// Package postgres provides PostgreSQL implementations of the store
// interfaces.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/remindly/remindly-api/internal/domain"
	"github.com/remindly/remindly-api/internal/platform/logger"
	"github.com/remindly/remindly-api/internal/store"
)

// PostgreSQL error codes
const pgUniqueViolationCode = "23505"

// PostgresNoteStore implements the store.NoteStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNoteStore creates a new PostgreSQL implementation of the
// NoteStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresNoteStore(db store.DBTX, logger *slog.Logger) *PostgresNoteStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "note_store")),
	}
}

// Ensure PostgresNoteStore implements store.NoteStore interface
var _ store.NoteStore = (*PostgresNoteStore)(nil)

// Create implements store.NoteStore.Create
// It saves a new note to the database, handling domain validation.
// Returns validation errors from the domain Note if data is invalid.
// Returns store.ErrDuplicate if a note with the same ID already exists.
func (s *PostgresNoteStore) Create(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during create",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return err
	}

	tags, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode note tags: %w", err)
	}

	query := `
		INSERT INTO notes (id, title, content, tags, created_at, modified_at, reminder_date, reminder_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		note.ID,
		note.Title,
		note.Content,
		tags,
		note.CreatedAt,
		note.ModifiedAt,
		note.ReminderDate,
		note.ReminderID,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Warn("duplicate note ID during creation",
				slog.String("note_id", note.ID.String()))
			return fmt.Errorf("%w: note with ID %s", store.ErrDuplicate, note.ID)
		}

		log.Error("failed to create note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return store.NewStoreError("note", "create", "failed to insert note", err)
	}

	log.Debug("note created successfully",
		slog.String("note_id", note.ID.String()))
	return nil
}

// GetByID implements store.NoteStore.GetByID
// It retrieves a note by its unique ID.
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, content, tags, created_at, modified_at, reminder_date, reminder_id
		FROM notes
		WHERE id = $1
	`

	note, err := scanNote(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("note not found", slog.String("note_id", id.String()))
			return nil, store.ErrNoteNotFound
		}
		log.Error("failed to get note by ID",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return nil, store.NewStoreError("note", "get", "failed to query note", err)
	}

	return note, nil
}

// Update implements store.NoteStore.Update
// It saves changes to an existing note.
// Returns store.ErrNoteNotFound if the note does not exist.
// Returns validation errors if the note data is invalid.
func (s *PostgresNoteStore) Update(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during update",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return err
	}

	tags, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode note tags: %w", err)
	}

	query := `
		UPDATE notes
		SET title = $1, content = $2, tags = $3, modified_at = $4, reminder_date = $5, reminder_id = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		note.Title,
		note.Content,
		tags,
		note.ModifiedAt,
		note.ReminderDate,
		note.ReminderID,
		note.ID,
	)

	if err != nil {
		log.Error("failed to update note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return store.NewStoreError("note", "update", "failed to update note", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return store.NewStoreError("note", "update", "failed to read update result", err)
	}

	if rowsAffected == 0 {
		log.Debug("note not found for update",
			slog.String("note_id", note.ID.String()))
		return store.ErrNoteNotFound
	}

	log.Debug("note updated successfully",
		slog.String("note_id", note.ID.String()))
	return nil
}

// Delete implements store.NoteStore.Delete
// Deleting a note that does not exist is a no-op.
func (s *PostgresNoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM notes WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete note",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return store.NewStoreError("note", "delete", "failed to delete note", err)
	}

	log.Debug("note deleted", slog.String("note_id", id.String()))
	return nil
}

// List implements store.NoteStore.List
// It retrieves all notes ordered by modified time descending. Insertion
// order breaks ties so repeated loads see a stable sequence.
func (s *PostgresNoteStore) List(ctx context.Context) ([]*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, content, tags, created_at, modified_at, reminder_date, reminder_id
		FROM notes
		ORDER BY modified_at DESC, position ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query notes", slog.String("error", err.Error()))
		return nil, store.NewStoreError("note", "list", "failed to query notes", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	notes := []*domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			log.Error("failed to scan note row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("note", "list", "failed to scan note row", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("note", "list", "row iteration failed", err)
	}

	log.Debug("listed notes", slog.Int("count", len(notes)))
	return notes, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanNote.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote reads one note row, decoding the tags JSON column.
func scanNote(row rowScanner) (*domain.Note, error) {
	var note domain.Note
	var tags []byte
	var reminderDate sql.NullTime
	var reminderID sql.NullString

	err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&tags,
		&note.CreatedAt,
		&note.ModifiedAt,
		&reminderDate,
		&reminderID,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tags, &note.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode note tags: %w", err)
	}
	if reminderDate.Valid {
		d := reminderDate.Time.UTC()
		note.ReminderDate = &d
	}
	if reminderID.Valid {
		id := reminderID.String
		note.ReminderID = &id
	}

	return &note, nil
}
