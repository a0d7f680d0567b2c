// Package api provides HTTP handlers for the API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/remindly/remindly-api/internal/api/shared"
	"github.com/remindly/remindly-api/internal/domain"
	"github.com/remindly/remindly-api/internal/platform/logger"
	"github.com/remindly/remindly-api/internal/service"
)

// NoteHandler handles note-related HTTP requests.
type NoteHandler struct {
	noteService service.NoteService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(noteService service.NoteService, logger *slog.Logger) *NoteHandler {
	if noteService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("noteService cannot be nil for NoteHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NoteHandler")
	}

	return &NoteHandler{
		noteService: noteService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "note_handler")),
	}
}

// ListNotes handles GET /notes requests. The optional search and tags query
// parameters set the view filter before the visible sequence is returned;
// omitting them clears the corresponding filter.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	search := r.URL.Query().Get("search")
	tags := domain.ParseTags(r.URL.Query().Get("tags"))

	h.noteService.SetSearchText(search)
	h.noteService.SetSelectedTags(tags)

	notes := h.noteService.Notes()
	log.Debug("listing notes",
		slog.Int("count", len(notes)),
		slog.String("search", search),
		slog.Int("selected_tags", len(tags)))

	shared.RespondWithJSON(w, r, http.StatusOK, notesToResponse(notes))
}

// CreateNote handles POST /notes requests.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug("failed to decode create note request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	note, err := h.noteService.AddNote(r.Context(), req.Title, req.Content, req.Tags)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("note created", slog.String("note_id", note.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, noteToResponse(note))
}

// GetNote handles GET /notes/{id} requests. The single-note read ignores
// the active filter.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathNoteID(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.GetNote(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// UpdateNote handles PUT /notes/{id} requests. Like delete, updating a
// missing note returns 204; the operation is idempotent.
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathNoteID(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug("failed to decode update note request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		log.Debug("update note request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	err := h.noteService.UpdateNote(r.Context(), id, service.UpdateNoteParams{
		Title:           req.Title,
		Content:         req.Content,
		TagsText:        req.TagsText,
		ReminderEnabled: req.ReminderEnabled,
		ReminderDate:    req.ReminderDate,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("note updated", slog.String("note_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote handles DELETE /notes/{id} requests. Deleting a missing note
// still returns 204; the operation is idempotent.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathNoteID(w, r)
	if !ok {
		return
	}

	if err := h.noteService.DeleteNote(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("note deleted", slog.String("note_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ScheduleReminder handles POST /notes/{id}/reminder requests.
func (h *NoteHandler) ScheduleReminder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathNoteID(w, r)
	if !ok {
		return
	}

	var req ScheduleReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug("failed to decode schedule reminder request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		log.Debug("schedule reminder request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Reminder time is required")
		return
	}

	if err := h.noteService.ScheduleReminder(r.Context(), id, req.At); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("reminder scheduled", slog.String("note_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// CancelReminder handles DELETE /notes/{id}/reminder requests. Cancelling a
// missing note or a note without a reminder still returns 204.
func (h *NoteHandler) CancelReminder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathNoteID(w, r)
	if !ok {
		return
	}

	if err := h.noteService.CancelReminder(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("reminder cancelled", slog.String("note_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /tags requests.
func (h *NoteHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags := h.noteService.AllTags()
	if tags == nil {
		tags = []string{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TagsResponse{Tags: tags})
}

// pathNoteID extracts and parses the {id} path parameter, writing a 400
// response when it is missing or malformed.
func (h *NoteHandler) pathNoteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid note ID")
		return uuid.Nil, false
	}
	return id, true
}
