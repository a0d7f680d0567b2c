package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/remindly/remindly-api/internal/domain"
	"github.com/remindly/remindly-api/internal/events"
	"github.com/remindly/remindly-api/internal/scheduler"
	"github.com/remindly/remindly-api/internal/store"
)

// UpdateNoteParams carries the writable fields for UpdateNote. TagsText is
// the free-text comma-separated form the detail screen edits; it is parsed
// with domain.ParseTags. Disabling the reminder cancels any scheduled alert
// and clears both reminder fields; enabling it only records ReminderDate.
// Scheduling stays a separate explicit step so that saving text edits can
// never trigger a permission prompt.
type UpdateNoteParams struct {
	Title           string
	Content         string
	TagsText        string
	ReminderEnabled bool
	ReminderDate    *time.Time
}

// NoteService provides note-related operations and owns the authoritative
// in-memory working set plus the derived filtered view and tag index.
//
// All state transitions are serialized internally; the asynchronous
// scheduler round-trips are awaited outside the service's lock so a hung
// alerting service stalls only the affected reminder operation, never note
// CRUD.
type NoteService interface {
	// LoadAll re-reads the store, rebuilds the tag index and re-applies the
	// active filter. It is idempotent and safe to call at any time.
	LoadAll(ctx context.Context) error

	// AddNote constructs a note (blank title falls back to the default),
	// persists it and reloads the working set.
	AddNote(ctx context.Context, title, content string, tags []string) (*domain.Note, error)

	// GetNote returns a copy of a single note regardless of the active
	// filter. Returns ErrNoteNotFound if the note does not exist.
	GetNote(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// UpdateNote applies UpdateNoteParams to an existing note, stamps
	// ModifiedAt and persists. Updating a note that no longer exists is a
	// no-op.
	UpdateNote(ctx context.Context, id uuid.UUID, params UpdateNoteParams) error

	// ScheduleReminder schedules (or replaces) the note's one-shot reminder
	// at the given time, reusing the note's identifier or generating a
	// fresh one. On success the identifier and the minute-truncated time
	// are persisted. Returns scheduler.ErrPermissionDenied or
	// scheduler.ErrScheduleFailed when the reminder was not set.
	ScheduleReminder(ctx context.Context, id uuid.UUID, at time.Time) error

	// CancelReminder cancels any scheduled alert and clears both reminder
	// fields. Cancelling a note without a reminder, or a missing note, is a
	// no-op.
	CancelReminder(ctx context.Context, id uuid.UUID) error

	// DeleteNote cancels any active reminder and removes the note.
	// Deleting a missing note is a no-op.
	DeleteNote(ctx context.Context, id uuid.UUID) error

	// SetSearchText updates the search filter and synchronously recomputes
	// the visible sequence. No store or scheduler access happens.
	SetSearchText(text string)

	// SetSelectedTags updates the tag filter (AND semantics) and
	// synchronously recomputes the visible sequence.
	SetSelectedTags(tags []string)

	// Notes returns a snapshot of the currently visible note sequence.
	Notes() []*domain.Note

	// AllTags returns a snapshot of the tag index: all distinct normalized
	// tags, sorted ascending.
	AllTags() []string

	// SeedSampleData populates the store with sample notes exactly once,
	// gated by a persisted flag. Failures are logged and non-fatal.
	SeedSampleData(ctx context.Context) error
}

// noteServiceImpl implements the NoteService interface.
type noteServiceImpl struct {
	noteStore store.NoteStore
	flagStore store.FlagStore
	sched     scheduler.ReminderScheduler
	emitter   events.Emitter
	logger    *slog.Logger

	mu           sync.Mutex
	all          []*domain.Note
	visible      []*domain.Note
	tagIndex     []string
	searchText   string
	selectedTags map[string]struct{}

	// generations implements the cancellation-wins discipline: every
	// schedule attempt, cancel and delete bumps the note's generation, and
	// a schedule completion is only applied if the generation it captured
	// is still current.
	generations map[uuid.UUID]uint64
}

// NewNoteService creates a new NoteService.
// It returns an error if any of the required dependencies are nil.
func NewNoteService(
	noteStore store.NoteStore,
	flagStore store.FlagStore,
	sched scheduler.ReminderScheduler,
	emitter events.Emitter,
	logger *slog.Logger,
) (NoteService, error) {
	if noteStore == nil {
		return nil, &NoteServiceError{Operation: "create_service", Message: "noteStore cannot be nil"}
	}
	if flagStore == nil {
		return nil, &NoteServiceError{Operation: "create_service", Message: "flagStore cannot be nil"}
	}
	if sched == nil {
		return nil, &NoteServiceError{Operation: "create_service", Message: "scheduler cannot be nil"}
	}
	if emitter == nil {
		return nil, &NoteServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &noteServiceImpl{
		noteStore:    noteStore,
		flagStore:    flagStore,
		sched:        sched,
		emitter:      emitter,
		logger:       logger.With("component", "note_service"),
		selectedTags: make(map[string]struct{}),
		generations:  make(map[uuid.UUID]uint64),
	}, nil
}

// LoadAll implements NoteService.LoadAll.
func (s *noteServiceImpl) LoadAll(ctx context.Context) error {
	s.mu.Lock()
	err := s.reloadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return NewNoteServiceError("load_all", "failed to load notes", err)
	}

	s.notify(ctx, events.ReasonLoaded, uuid.Nil)
	return nil
}

// AddNote implements NoteService.AddNote.
func (s *noteServiceImpl) AddNote(ctx context.Context, title, content string, tags []string) (*domain.Note, error) {
	note, err := domain.NewNote(title, content, tags)
	if err != nil {
		s.logger.Error("failed to create note object", "error", err)
		return nil, NewNoteServiceError("add_note", "failed to create note object", err)
	}

	s.mu.Lock()
	if err := s.noteStore.Create(ctx, note); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to persist new note", "error", err, "note_id", note.ID)
		return nil, NewNoteServiceError("add_note", "failed to save note", err)
	}
	err = s.reloadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, NewNoteServiceError("add_note", "failed to reload notes", err)
	}

	s.logger.Info("note created", "note_id", note.ID)
	s.notify(ctx, events.ReasonNoteAdded, note.ID)
	return note.Clone(), nil
}

// GetNote implements NoteService.GetNote.
func (s *noteServiceImpl) GetNote(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	note, err := s.noteStore.GetByID(ctx, id)
	if err != nil {
		return nil, NewNoteServiceError("get_note", "failed to retrieve note", err)
	}
	return note, nil
}

// UpdateNote implements NoteService.UpdateNote.
func (s *noteServiceImpl) UpdateNote(ctx context.Context, id uuid.UUID, params UpdateNoteParams) error {
	if params.ReminderEnabled && params.ReminderDate == nil {
		return ErrReminderDateRequired
	}

	cancelID := ""

	s.mu.Lock()
	note, err := s.noteStore.GetByID(ctx, id)
	if err != nil {
		s.mu.Unlock()
		if store.IsNotFoundError(err) {
			return nil
		}
		return NewNoteServiceError("update_note", "failed to retrieve note", err)
	}

	note.Title = params.Title
	note.Content = params.Content
	note.Tags = domain.ParseTags(params.TagsText)

	if params.ReminderEnabled {
		// Pending state: the date is recorded but nothing is scheduled
		// until the caller explicitly invokes ScheduleReminder.
		note.ReminderDate = params.ReminderDate
	} else {
		// The generation bump is unconditional so an in-flight schedule
		// attempt is superseded even before its identifier is stored.
		s.generations[id]++
		if note.ReminderID != nil {
			cancelID = *note.ReminderID
		}
		note.ReminderDate = nil
		note.ReminderID = nil
	}
	note.Touch()

	if err := s.noteStore.Update(ctx, note); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to save note", "error", err, "note_id", id)
		return NewNoteServiceError("update_note", "failed to save note", err)
	}
	err = s.reloadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return NewNoteServiceError("update_note", "failed to reload notes", err)
	}

	if cancelID != "" {
		if err := s.sched.Cancel(ctx, cancelID); err != nil {
			s.logger.Error("failed to cancel reminder", "error", err, "note_id", id, "reminder_id", cancelID)
		}
	}

	s.logger.Info("note updated", "note_id", id, "reminder_enabled", params.ReminderEnabled)
	s.notify(ctx, events.ReasonNoteUpdated, id)
	return nil
}

// ScheduleReminder implements NoteService.ScheduleReminder.
func (s *noteServiceImpl) ScheduleReminder(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	note, err := s.noteStore.GetByID(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return NewNoteServiceError("schedule_reminder", "failed to retrieve note", err)
	}

	reminderID := uuid.NewString()
	if note.ReminderID != nil {
		// Re-scheduling an existing identifier replaces the prior schedule
		// on the platform side; no explicit cancel is needed.
		reminderID = *note.ReminderID
	}

	s.generations[id]++
	gen := s.generations[id]
	title := note.Title
	body := note.Content
	s.mu.Unlock()

	// Await the platform confirmation without holding the lock; a hang here
	// stalls only this reminder operation.
	var res scheduler.Result
	select {
	case res = <-s.sched.Schedule(ctx, scheduler.Request{ID: reminderID, Title: title, Body: body, At: at}):
	case <-ctx.Done():
		return NewNoteServiceError("schedule_reminder", "schedule cancelled by caller", ctx.Err())
	}

	if !res.Scheduled {
		// A failed schedule leaves any pending ReminderDate in place and
		// the identifier untouched; the note stays in its pending state.
		err := res.Err
		if err == nil {
			err = scheduler.ErrScheduleFailed
		}
		s.logger.Warn("reminder not scheduled", "error", err, "note_id", id)
		return err
	}

	s.mu.Lock()
	if s.generations[id] != gen {
		// A cancel or delete won the race; the platform schedule we just
		// confirmed is stale and must be removed.
		s.mu.Unlock()
		if err := s.sched.Cancel(ctx, reminderID); err != nil {
			s.logger.Error("failed to cancel stale reminder", "error", err, "reminder_id", reminderID)
		}
		s.logger.Info("schedule result discarded, superseded", "note_id", id, "reminder_id", reminderID)
		return ErrReminderSuperseded
	}

	note, err = s.noteStore.GetByID(ctx, id)
	if err != nil {
		s.mu.Unlock()
		if cancelErr := s.sched.Cancel(ctx, reminderID); cancelErr != nil {
			s.logger.Error("failed to cancel orphaned reminder", "error", cancelErr, "reminder_id", reminderID)
		}
		return NewNoteServiceError("schedule_reminder", "note vanished during scheduling", err)
	}

	note.SetReminder(reminderID, at.Truncate(time.Minute))
	if err := s.noteStore.Update(ctx, note); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to persist scheduled reminder", "error", err, "note_id", id)
		return NewNoteServiceError("schedule_reminder", "failed to save reminder", err)
	}
	err = s.reloadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return NewNoteServiceError("schedule_reminder", "failed to reload notes", err)
	}

	s.logger.Info("reminder scheduled", "note_id", id, "reminder_id", reminderID)
	s.notify(ctx, events.ReasonReminderSet, id)
	return nil
}

// CancelReminder implements NoteService.CancelReminder.
func (s *noteServiceImpl) CancelReminder(ctx context.Context, id uuid.UUID) error {
	cancelID := ""

	s.mu.Lock()
	note, err := s.noteStore.GetByID(ctx, id)
	if err != nil {
		s.mu.Unlock()
		if store.IsNotFoundError(err) {
			return nil
		}
		return NewNoteServiceError("cancel_reminder", "failed to retrieve note", err)
	}

	// The generation bump happens even when nothing is stored yet so an
	// in-flight schedule attempt is still superseded.
	s.generations[id]++

	if note.ReminderDate == nil && note.ReminderID == nil {
		s.mu.Unlock()
		return nil
	}

	if note.ReminderID != nil {
		cancelID = *note.ReminderID
	}
	note.ClearReminder()

	if err := s.noteStore.Update(ctx, note); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to persist reminder cancellation", "error", err, "note_id", id)
		return NewNoteServiceError("cancel_reminder", "failed to save note", err)
	}
	err = s.reloadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return NewNoteServiceError("cancel_reminder", "failed to reload notes", err)
	}

	if cancelID != "" {
		if err := s.sched.Cancel(ctx, cancelID); err != nil {
			s.logger.Error("failed to cancel reminder", "error", err, "note_id", id, "reminder_id", cancelID)
		}
	}

	s.logger.Info("reminder cancelled", "note_id", id)
	s.notify(ctx, events.ReasonReminderCleared, id)
	return nil
}

// DeleteNote implements NoteService.DeleteNote.
func (s *noteServiceImpl) DeleteNote(ctx context.Context, id uuid.UUID) error {
	cancelID := ""

	s.mu.Lock()
	note, err := s.noteStore.GetByID(ctx, id)
	if err != nil {
		s.mu.Unlock()
		if store.IsNotFoundError(err) {
			return nil
		}
		return NewNoteServiceError("delete_note", "failed to retrieve note", err)
	}

	s.generations[id]++
	if note.ReminderID != nil {
		cancelID = *note.ReminderID
	}
	s.mu.Unlock()

	// Cancellation happens before removal so the platform never fires an
	// alert for a note that no longer exists.
	if cancelID != "" {
		if err := s.sched.Cancel(ctx, cancelID); err != nil {
			s.logger.Error("failed to cancel reminder", "error", err, "note_id", id, "reminder_id", cancelID)
		}
	}

	s.mu.Lock()
	if err := s.noteStore.Delete(ctx, id); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to delete note", "error", err, "note_id", id)
		return NewNoteServiceError("delete_note", "failed to delete note", err)
	}
	delete(s.generations, id)
	err = s.reloadLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return NewNoteServiceError("delete_note", "failed to reload notes", err)
	}

	s.logger.Info("note deleted", "note_id", id)
	s.notify(ctx, events.ReasonNoteDeleted, id)
	return nil
}

// SetSearchText implements NoteService.SetSearchText.
func (s *noteServiceImpl) SetSearchText(text string) {
	s.mu.Lock()
	s.searchText = text
	s.visible = visibleNotes(s.all, s.searchText, s.selectedTags)
	s.mu.Unlock()

	s.notify(context.Background(), events.ReasonFilterChanged, uuid.Nil)
}

// SetSelectedTags implements NoteService.SetSelectedTags.
func (s *noteServiceImpl) SetSelectedTags(tags []string) {
	s.mu.Lock()
	s.selectedTags = normalizeTagSet(tags)
	s.visible = visibleNotes(s.all, s.searchText, s.selectedTags)
	s.mu.Unlock()

	s.notify(context.Background(), events.ReasonFilterChanged, uuid.Nil)
}

// Notes implements NoteService.Notes.
func (s *noteServiceImpl) Notes() []*domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*domain.Note, 0, len(s.visible))
	for _, note := range s.visible {
		snapshot = append(snapshot, note.Clone())
	}
	return snapshot
}

// AllTags implements NoteService.AllTags.
func (s *noteServiceImpl) AllTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tagIndex...)
}

// reloadLocked re-reads the store and rebuilds the derived state.
// The caller must hold s.mu.
func (s *noteServiceImpl) reloadLocked(ctx context.Context) error {
	notes, err := s.noteStore.List(ctx)
	if err != nil {
		return err
	}
	s.all = notes
	s.tagIndex = buildTagIndex(notes)
	s.visible = visibleNotes(notes, s.searchText, s.selectedTags)
	return nil
}

// notify publishes a view-change event. Handler failures are already logged
// by the emitter and never fail the originating operation.
func (s *noteServiceImpl) notify(ctx context.Context, reason string, noteID uuid.UUID) {
	if err := s.emitter.Emit(ctx, events.NewViewChangedEvent(reason, noteID)); err != nil {
		s.logger.Debug("view change handler reported error", "error", err, "reason", reason)
	}
}
