package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remindly/remindly-api/internal/events"
	"github.com/remindly/remindly-api/internal/platform/memory"
	"github.com/remindly/remindly-api/internal/scheduler"
	"github.com/remindly/remindly-api/internal/service"
)

// stubScheduler resolves every schedule immediately with a configurable
// outcome and records cancels.
type stubScheduler struct {
	scheduleErr error
	cancelled   []string
}

var _ scheduler.ReminderScheduler = (*stubScheduler)(nil)

func (s *stubScheduler) RequestPermission(ctx context.Context) (bool, error) {
	return s.scheduleErr == nil, nil
}

func (s *stubScheduler) Schedule(ctx context.Context, req scheduler.Request) <-chan scheduler.Result {
	ch := make(chan scheduler.Result, 1)
	ch <- scheduler.Result{Scheduled: s.scheduleErr == nil, Err: s.scheduleErr}
	return ch
}

func (s *stubScheduler) Cancel(ctx context.Context, id string) error {
	s.cancelled = append(s.cancelled, id)
	return nil
}

type handlerFixture struct {
	router *chi.Mux
	svc    service.NoteService
	sched  *stubScheduler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	sched := &stubScheduler{}
	svc, err := service.NewNoteService(
		memory.NewMemoryNoteStore(),
		memory.NewMemoryFlagStore(),
		sched,
		events.NewInMemoryEmitter(nil),
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, svc.LoadAll(context.Background()))

	handler := NewNoteHandler(svc, slog.Default())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Get("/notes", handler.ListNotes)
		r.Post("/notes", handler.CreateNote)
		r.Get("/notes/{id}", handler.GetNote)
		r.Put("/notes/{id}", handler.UpdateNote)
		r.Delete("/notes/{id}", handler.DeleteNote)
		r.Post("/notes/{id}/reminder", handler.ScheduleReminder)
		r.Delete("/notes/{id}/reminder", handler.CancelReminder)
		r.Get("/tags", handler.ListTags)
	})

	return &handlerFixture{router: router, svc: svc, sched: sched}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) createNote(t *testing.T, title, content string, tags []string) NoteResponse {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/notes", CreateNoteRequest{
		Title:   title,
		Content: content,
		Tags:    tags,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var note NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	return note
}

func TestCreateNote(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Groceries", "milk", []string{"home"})

	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, "milk", note.Content)
	assert.Equal(t, []string{"home"}, note.Tags)
	assert.NotEqual(t, uuid.Nil, note.ID)
}

func TestCreateNote_InvalidJSON(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNotes_FiltersBySearchAndTags(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	f.createNote(t, "Grocery Run", "apples", []string{"home"})
	f.createNote(t, "Work Plan", "groceries are not in here, wait, yes they are: groceries", []string{"work"})
	f.createNote(t, "Untouched", "nothing", nil)

	rec := f.do(t, http.MethodGet, "/api/notes?search=grocer&tags=home", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var notes []NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "Grocery Run", notes[0].Title)

	// Omitting the query parameters clears the filter again.
	rec = f.do(t, http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	assert.Len(t, notes, 3)
}

func TestGetNote(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	created := f.createNote(t, "Single", "body", []string{"x"})

	rec := f.do(t, http.MethodGet, "/api/notes/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var note NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, created.ID, note.ID)
	assert.Equal(t, "Single", note.Title)
}

func TestGetNote_NotFound(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/notes/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateNote(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Old", "old", nil)

	rec := f.do(t, http.MethodPut, "/api/notes/"+note.ID.String(), UpdateNoteRequest{
		Title:    "New",
		Content:  "new",
		TagsText: "a, b",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/notes", nil)
	var notes []NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "New", notes[0].Title)
	assert.Equal(t, []string{"a", "b"}, notes[0].Tags)
}

func TestUpdateNote_MissingNoteIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPut, "/api/notes/"+uuid.NewString(), UpdateNoteRequest{Title: "x"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUpdateNote_MissingTitle(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Note", "", nil)

	rec := f.do(t, http.MethodPut, "/api/notes/"+note.ID.String(), UpdateNoteRequest{Title: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateNote_InvalidID(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPut, "/api/notes/not-a-uuid", UpdateNoteRequest{Title: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateNote_ReminderEnabledWithoutDate(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Note", "", nil)

	rec := f.do(t, http.MethodPut, "/api/notes/"+note.ID.String(), UpdateNoteRequest{
		Title:           "Note",
		ReminderEnabled: true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteNote(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Note", "", nil)

	rec := f.do(t, http.MethodDelete, "/api/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Idempotent: deleting again still succeeds.
	rec = f.do(t, http.MethodDelete, "/api/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestScheduleReminder(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Dentist", "", nil)
	at := time.Now().UTC().Add(time.Hour)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/notes/%s/reminder", note.ID), ScheduleReminderRequest{At: at})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/notes", nil)
	var notes []NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	require.NotNil(t, notes[0].ReminderDate)
	assert.True(t, notes[0].ReminderDate.Equal(at.Truncate(time.Minute)))
	assert.NotNil(t, notes[0].ReminderID)
}

func TestScheduleReminder_PermissionDenied(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	f.sched.scheduleErr = scheduler.ErrPermissionDenied

	note := f.createNote(t, "Note", "", nil)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/notes/%s/reminder", note.ID), ScheduleReminderRequest{
		At: time.Now().UTC().Add(time.Hour),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "Notification permission denied", errResp["error"])
}

func TestScheduleReminder_MissingTime(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Note", "", nil)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/notes/%s/reminder", note.ID), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleReminder_NotFound(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/notes/%s/reminder", uuid.New()), ScheduleReminderRequest{
		At: time.Now().UTC().Add(time.Hour),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelReminder(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	note := f.createNote(t, "Note", "", nil)
	at := time.Now().UTC().Add(time.Hour)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/notes/%s/reminder", note.ID), ScheduleReminderRequest{At: at})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/notes/%s/reminder", note.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, f.sched.cancelled, 1)

	rec = f.do(t, http.MethodGet, "/api/notes", nil)
	var notes []NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0].ReminderDate)
	assert.Nil(t, notes[0].ReminderID)
}

func TestCancelReminder_MissingNoteIsNoOp(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/api/notes/%s/reminder", uuid.New()), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListTags(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	f.createNote(t, "A", "", []string{"Zebra", "work"})
	f.createNote(t, "B", "", []string{"WORK", "alpha"})

	rec := f.do(t, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TagsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"alpha", "work", "zebra"}, resp.Tags)
}

func TestListTags_Empty(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TagsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Tags)
}
