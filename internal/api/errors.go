package api

import (
	"errors"
	"net/http"

	"github.com/remindly/remindly-api/internal/domain"
	"github.com/remindly/remindly-api/internal/scheduler"
	"github.com/remindly/remindly-api/internal/service"
	"github.com/remindly/remindly-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrNoteNotFound),
		errors.Is(err, store.ErrNoteNotFound):
		return http.StatusNotFound

	// Reminder scheduling conflicts: the request was well-formed but the
	// alerting side refused or overtook it.
	case errors.Is(err, scheduler.ErrPermissionDenied),
		errors.Is(err, scheduler.ErrScheduleFailed),
		errors.Is(err, scheduler.ErrStopped),
		errors.Is(err, service.ErrReminderSuperseded):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrReminderDateRequired),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBlankNoteTitle),
		errors.Is(err, domain.ErrEmptyTag),
		errors.Is(err, domain.ErrInvalidTimestamps),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrNoteNotFound),
		errors.Is(err, store.ErrNoteNotFound):
		return "Note not found"

	case errors.Is(err, scheduler.ErrPermissionDenied):
		return "Notification permission denied"

	case errors.Is(err, scheduler.ErrScheduleFailed),
		errors.Is(err, scheduler.ErrStopped):
		return "Failed to schedule reminder"

	case errors.Is(err, service.ErrReminderSuperseded):
		return "Reminder was cancelled before scheduling completed"

	case errors.Is(err, service.ErrReminderDateRequired):
		return "Reminder date is required when the reminder is enabled"

	case errors.Is(err, domain.ErrBlankNoteTitle):
		return "Note title cannot be blank"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyTag),
		errors.Is(err, domain.ErrInvalidTimestamps),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	default:
		return "An unexpected error occurred"
	}
}
