package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultNoteTitle is used when a note is created without a title.
const DefaultNoteTitle = "New Note"

// Note represents a user-authored text record with optional tags and an
// optional one-shot reminder. Tags are stored exactly as entered; the
// normalized lowercase form is only ever derived for indexing and filtering.
//
// ReminderID is non-nil if and only if a reminder was successfully scheduled
// with the alerting service and has not been cancelled or superseded. A note
// may carry a ReminderDate with a nil ReminderID while scheduling is in
// flight or after a failed schedule attempt; callers must tolerate that
// state.
type Note struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Tags         []string   `json:"tags"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
	ReminderDate *time.Time `json:"reminder_date,omitempty"`
	ReminderID   *string    `json:"reminder_id,omitempty"`
}

// NewNote creates a new Note with the given title, content and tags.
// It generates a new UUID for the note ID and stamps both timestamps with
// the current UTC time. A blank title falls back to DefaultNoteTitle.
// Returns an error if validation fails.
func NewNote(title, content string, tags []string) (*Note, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultNoteTitle
	}

	now := time.Now().UTC()
	note := &Note{
		ID:         uuid.New(),
		Title:      title,
		Content:    content,
		Tags:       tags,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// Validate checks if the Note has valid data.
// Returns an error if any field fails validation.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNoteID
	}

	if strings.TrimSpace(n.Title) == "" {
		return ErrBlankNoteTitle
	}

	if n.ModifiedAt.Before(n.CreatedAt) {
		return ErrInvalidTimestamps
	}

	for _, tag := range n.Tags {
		if strings.TrimSpace(tag) == "" {
			return ErrEmptyTag
		}
	}

	return nil
}

// Touch stamps ModifiedAt with the current UTC time. It is called on every
// successful mutation of the note's content, tags or reminder fields.
func (n *Note) Touch() {
	n.ModifiedAt = time.Now().UTC()
}

// HasReminder reports whether a reminder is enabled for the note.
// Presence of ReminderDate is the sole signal of "reminder enabled".
func (n *Note) HasReminder() bool {
	return n.ReminderDate != nil
}

// HasActiveReminder reports whether a reminder was successfully scheduled
// with the alerting service and not yet cancelled or superseded.
func (n *Note) HasActiveReminder() bool {
	return n.ReminderID != nil
}

// SetReminder records a confirmed schedule: the alerting-service identifier
// and the fire-at time. It stamps ModifiedAt.
func (n *Note) SetReminder(id string, at time.Time) {
	n.ReminderID = &id
	n.ReminderDate = &at
	n.Touch()
}

// ClearReminder removes both reminder fields and stamps ModifiedAt.
func (n *Note) ClearReminder() {
	n.ReminderID = nil
	n.ReminderDate = nil
	n.Touch()
}

// Clone returns a deep copy of the note. Callers that hand notes across
// goroutine boundaries copy first so the service's working set is never
// aliased by external code.
func (n *Note) Clone() *Note {
	clone := *n
	if n.Tags != nil {
		clone.Tags = append([]string(nil), n.Tags...)
	}
	if n.ReminderDate != nil {
		d := *n.ReminderDate
		clone.ReminderDate = &d
	}
	if n.ReminderID != nil {
		id := *n.ReminderID
		clone.ReminderID = &id
	}
	return &clone
}
