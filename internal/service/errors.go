// Package service contains the note repository: the single owner of the
// in-memory working set, the filtered view, the tag index and the reminder
// lifecycle.
package service

import (
	"errors"
	"fmt"

	"github.com/remindly/remindly-api/internal/store"
)

// Common sentinel errors for NoteService.
var (
	// ErrNoteNotFound indicates that the note does not exist.
	ErrNoteNotFound = errors.New("note not found")

	// ErrReminderDateRequired indicates that a reminder was enabled without
	// a target time.
	ErrReminderDateRequired = errors.New("reminder date required")

	// ErrReminderSuperseded indicates that a schedule attempt completed
	// after a cancel or delete had already won the race; its result was
	// discarded.
	ErrReminderSuperseded = errors.New("reminder superseded by cancel or delete")
)

// NoteServiceError wraps errors from the note service with context.
type NoteServiceError struct {
	// Operation is the operation that failed (e.g., "load_all", "update_note")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for NoteServiceError.
func (e *NoteServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("note service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("note service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NoteServiceError) Unwrap() error {
	return e.Err
}

// NewNoteServiceError creates a new NoteServiceError.
// It returns known sentinel errors directly without wrapping.
func NewNoteServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNoteNotFound) {
		return ErrNoteNotFound
	}

	// Store-level not-found maps to the service-level sentinel.
	if errors.Is(err, store.ErrNoteNotFound) {
		return ErrNoteNotFound
	}

	return &NoteServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
