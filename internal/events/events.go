// Package events defines the view-change notification contract between the
// note service and external presentation layers. There is no hidden
// reactivity: consumers either register a handler here or pull snapshots
// from the service.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event reasons describing why the visible note view changed.
const (
	ReasonLoaded          = "loaded"
	ReasonNoteAdded       = "note_added"
	ReasonNoteUpdated     = "note_updated"
	ReasonNoteDeleted     = "note_deleted"
	ReasonReminderSet     = "reminder_set"
	ReasonReminderCleared = "reminder_cleared"
	ReasonFilterChanged   = "filter_changed"
)

// ViewChangedEvent announces that the visible note sequence or the tag
// index may have changed. NoteID is uuid.Nil for whole-view changes such as
// reloads and filter updates.
type ViewChangedEvent struct {
	ID        uuid.UUID `json:"id"`
	Reason    string    `json:"reason"`
	NoteID    uuid.UUID `json:"note_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewViewChangedEvent creates a new ViewChangedEvent with the given reason
// and the affected note, if any.
func NewViewChangedEvent(reason string, noteID uuid.UUID) *ViewChangedEvent {
	return &ViewChangedEvent{
		ID:        uuid.New(),
		Reason:    reason,
		NoteID:    noteID,
		CreatedAt: time.Now().UTC(),
	}
}

// Handler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ViewChangedEvent) error
}

// Emitter defines an interface for components that can emit events.
// This allows the service to publish view changes without direct knowledge
// of its observers.
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	Emit(ctx context.Context, event *ViewChangedEvent) error
}
