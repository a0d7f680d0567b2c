// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyNoteID is returned when a note has a nil ID.
	ErrEmptyNoteID = errors.New("note ID cannot be empty")

	// ErrBlankNoteTitle is returned when a note title is empty after trimming.
	ErrBlankNoteTitle = errors.New("note title cannot be blank")

	// ErrInvalidTimestamps is returned when ModifiedAt precedes CreatedAt.
	ErrInvalidTimestamps = errors.New("note modified time cannot precede created time")

	// ErrEmptyTag is returned when a stored tag is empty after trimming.
	ErrEmptyTag = errors.New("note tag cannot be empty")
)
