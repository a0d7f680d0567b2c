package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/remindly/remindly-api/internal/domain"
)

// Common request/response structures

// CreateNoteRequest defines the payload for creating a note. A blank title
// falls back to the default title; tags are taken as-is after parsing.
type CreateNoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdateNoteRequest defines the payload for updating a note. TagsText is
// the comma-separated free-text form; ReminderDate is required when
// ReminderEnabled is true.
type UpdateNoteRequest struct {
	Title           string     `json:"title"            validate:"required"`
	Content         string     `json:"content"`
	TagsText        string     `json:"tags_text"`
	ReminderEnabled bool       `json:"reminder_enabled"`
	ReminderDate    *time.Time `json:"reminder_date"`
}

// ScheduleReminderRequest defines the payload for scheduling a reminder.
type ScheduleReminderRequest struct {
	At time.Time `json:"at" validate:"required"`
}

// NoteResponse represents the response data for a note.
type NoteResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Tags         []string   `json:"tags"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
	ReminderDate *time.Time `json:"reminder_date,omitempty"`
	ReminderID   *string    `json:"reminder_id,omitempty"`
}

// TagsResponse represents the response data for the tag index.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// noteToResponse converts a domain note to its API representation.
func noteToResponse(note *domain.Note) NoteResponse {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteResponse{
		ID:           note.ID,
		Title:        note.Title,
		Content:      note.Content,
		Tags:         tags,
		CreatedAt:    note.CreatedAt,
		ModifiedAt:   note.ModifiedAt,
		ReminderDate: note.ReminderDate,
		ReminderID:   note.ReminderID,
	}
}

// notesToResponse converts a note sequence, preserving order.
func notesToResponse(notes []*domain.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, noteToResponse(note))
	}
	return out
}
