// Package scheduler defines the reminder-scheduling boundary: a platform
// alerting service that delivers one-shot notifications at a minute-granular
// wall-clock time, keyed by an opaque identifier.
package scheduler

import (
	"context"
	"errors"
	"time"
)

// Placeholder strings used when a reminder is scheduled with empty text.
const (
	DefaultTitle = "Reminder"
	DefaultBody  = "You have a reminder."
)

// Common scheduler errors.
var (
	// ErrPermissionDenied is returned when the user declined notification
	// access. Once denied, scheduling fails without prompting again.
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrScheduleFailed is returned when the alerting service rejected or
	// failed to confirm a scheduled reminder.
	ErrScheduleFailed = errors.New("failed to schedule reminder")

	// ErrStopped is returned when an operation is attempted on a scheduler
	// that has been shut down.
	ErrStopped = errors.New("scheduler stopped")
)

// Request describes a one-shot reminder to schedule. At is truncated to the
// minute by the scheduler; seconds-level precision is never promised.
type Request struct {
	ID    string
	Title string
	Body  string
	At    time.Time
}

// Result is the asynchronous outcome of a Schedule call.
// Scheduled is false when permission was denied or the platform failed to
// confirm the schedule; Err carries the reason.
type Result struct {
	Scheduled bool
	Err       error
}

// ReminderScheduler schedules, replaces and cancels one-shot reminders.
//
// Schedule and Cancel are keyed by the opaque identifier owned by the note.
// Scheduling an identifier that already has a pending reminder replaces it
// (last-write-wins); swapping to a NEW identifier requires the caller to
// cancel the old one first. Scheduling with a past timestamp is not
// validated here; the platform's fire-immediately-or-drop semantics apply.
type ReminderScheduler interface {
	// RequestPermission checks or obtains notification permission.
	// A previously denied state fails without prompting again; an
	// undetermined state prompts exactly once per call.
	RequestPermission(ctx context.Context) (bool, error)

	// Schedule asynchronously schedules a one-shot reminder and reports the
	// outcome on the returned channel. The call itself never blocks.
	Schedule(ctx context.Context, req Request) <-chan Result

	// Cancel removes both pending and already-delivered records for the
	// identifier. It is idempotent: cancelling an unknown identifier is a
	// no-op.
	Cancel(ctx context.Context, id string) error
}

// Prompter resolves an undetermined permission state by asking the user.
// Implementations must return the user's decision; the scheduler caches it.
type Prompter interface {
	Prompt(ctx context.Context) bool
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context) bool

// Prompt implements Prompter.
func (f PrompterFunc) Prompt(ctx context.Context) bool { return f(ctx) }

// Notifier is the delivery boundary invoked when a scheduled reminder fires.
type Notifier interface {
	Deliver(ctx context.Context, id, title, body string)
}
