package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/remindly/remindly-api/internal/domain"
)

// NoteStore defines the interface for note data persistence.
//
// Unlike the original app, which swallowed persistence failures at this
// boundary, every operation returns an explicit error so callers can retry
// or surface the failure.
type NoteStore interface {
	// Create saves a new note to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Note if data is invalid.
	// Returns ErrDuplicate if a note with the same ID already exists.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// Update saves changes to an existing note.
	// Returns ErrNoteNotFound if the note does not exist.
	// Returns validation errors if the note data is invalid.
	Update(ctx context.Context, note *domain.Note) error

	// Delete removes a note from the store. Deleting a note that does not
	// exist is a no-op, not an error; deletion is idempotent.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves all notes ordered by ModifiedAt descending.
	// Notes with equal ModifiedAt keep a stable relative order.
	// Returns an empty slice when the store is empty.
	List(ctx context.Context) ([]*domain.Note, error)
}
