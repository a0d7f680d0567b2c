package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remindly/remindly-api/internal/domain"
	"github.com/remindly/remindly-api/internal/events"
	"github.com/remindly/remindly-api/internal/platform/memory"
	"github.com/remindly/remindly-api/internal/scheduler"
	"github.com/remindly/remindly-api/internal/store"
)

// fakeScheduler records every Schedule and Cancel call and resolves schedule
// requests either immediately or, when block is set, only after the channel
// is closed. It lets tests drive the schedule/cancel race deterministically.
type fakeScheduler struct {
	mu          sync.Mutex
	scheduleErr error
	requests    []scheduler.Request
	cancelled   []string

	// block, when non-nil, delays every schedule result until it is closed.
	block chan struct{}
	// scheduleCalled receives one signal per Schedule call when non-nil.
	scheduleCalled chan struct{}
}

var _ scheduler.ReminderScheduler = (*fakeScheduler)(nil)

func (f *fakeScheduler) RequestPermission(ctx context.Context) (bool, error) {
	return f.scheduleErr == nil, nil
}

func (f *fakeScheduler) Schedule(ctx context.Context, req scheduler.Request) <-chan scheduler.Result {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	err := f.scheduleErr
	f.mu.Unlock()

	if f.scheduleCalled != nil {
		f.scheduleCalled <- struct{}{}
	}

	ch := make(chan scheduler.Result, 1)
	result := scheduler.Result{Scheduled: err == nil, Err: err}
	if block == nil {
		ch <- result
		return ch
	}
	go func() {
		<-block
		ch <- result
	}()
	return ch
}

func (f *fakeScheduler) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeScheduler) cancelledIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

func (f *fakeScheduler) scheduledRequests() []scheduler.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scheduler.Request(nil), f.requests...)
}

// countingHandler records every view-change event it receives.
type countingHandler struct {
	mu     sync.Mutex
	events []*events.ViewChangedEvent
}

func (h *countingHandler) HandleEvent(ctx context.Context, event *events.ViewChangedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *countingHandler) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	reasons := make([]string, 0, len(h.events))
	for _, e := range h.events {
		reasons = append(reasons, e.Reason)
	}
	return reasons
}

type serviceFixture struct {
	svc     NoteService
	notes   *memory.MemoryNoteStore
	flags   *memory.MemoryFlagStore
	sched   *fakeScheduler
	handler *countingHandler
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	notes := memory.NewMemoryNoteStore()
	flags := memory.NewMemoryFlagStore()
	sched := &fakeScheduler{}
	handler := &countingHandler{}

	emitter := events.NewInMemoryEmitter(nil)
	emitter.RegisterHandler(handler)

	svc, err := NewNoteService(notes, flags, sched, emitter, nil)
	require.NoError(t, err)

	return &serviceFixture{svc: svc, notes: notes, flags: flags, sched: sched, handler: handler}
}

// seedNote inserts a note with explicit timestamps directly into the backing
// store, bypassing the service, so ordering tests control ModifiedAt.
func (f *serviceFixture) seedNote(t *testing.T, title, content string, tags []string, modified time.Time) uuid.UUID {
	t.Helper()

	note := &domain.Note{
		ID:         uuid.New(),
		Title:      title,
		Content:    content,
		Tags:       tags,
		CreatedAt:  modified,
		ModifiedAt: modified,
	}
	require.NoError(t, f.notes.Create(context.Background(), note))
	return note.ID
}

func TestNewNoteService_NilDependencies(t *testing.T) {
	t.Parallel()

	notes := memory.NewMemoryNoteStore()
	flags := memory.NewMemoryFlagStore()
	sched := &fakeScheduler{}
	emitter := events.NewInMemoryEmitter(nil)

	_, err := NewNoteService(nil, flags, sched, emitter, nil)
	assert.Error(t, err)

	_, err = NewNoteService(notes, nil, sched, emitter, nil)
	assert.Error(t, err)

	_, err = NewNoteService(notes, flags, nil, emitter, nil)
	assert.Error(t, err)

	_, err = NewNoteService(notes, flags, sched, nil, nil)
	assert.Error(t, err)

	svc, err := NewNoteService(notes, flags, sched, emitter, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNoteService_AddNote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	note, err := f.svc.AddNote(ctx, "Shopping", "milk", []string{"home"})
	require.NoError(t, err)
	assert.Equal(t, "Shopping", note.Title)
	assert.Equal(t, []string{"home"}, note.Tags)

	visible := f.svc.Notes()
	require.Len(t, visible, 1)
	assert.Equal(t, note.ID, visible[0].ID)
	assert.Contains(t, f.handler.reasons(), events.ReasonNoteAdded)
}

func TestNoteService_AddNote_BlankTitleGetsDefault(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	note, err := f.svc.AddNote(context.Background(), "   ", "", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultNoteTitle, note.Title)
}

func TestNoteService_GetNote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Lookup", "body", []string{"x"}, time.Now().UTC())

	note, err := f.svc.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Lookup", note.Title)

	_, err = f.svc.GetNote(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteService_UpdateNote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	base := time.Now().UTC().Add(-time.Hour)
	id := f.seedNote(t, "Old", "old body", nil, base)
	other := f.seedNote(t, "Other", "", nil, base.Add(time.Minute))
	require.NoError(t, f.svc.LoadAll(ctx))

	err := f.svc.UpdateNote(ctx, id, UpdateNoteParams{
		Title:    "New Title",
		Content:  "new body",
		TagsText: "Work, personal ,, work-Stuff",
	})
	require.NoError(t, err)

	visible := f.svc.Notes()
	require.Len(t, visible, 2)
	// The edited note moved to the front of the ModifiedAt-descending order.
	assert.Equal(t, id, visible[0].ID)
	assert.Equal(t, other, visible[1].ID)
	assert.Equal(t, "New Title", visible[0].Title)
	assert.Equal(t, []string{"Work", "personal", "work-Stuff"}, visible[0].Tags)
	assert.True(t, visible[0].ModifiedAt.After(base))
}

func TestNoteService_UpdateNote_MissingNoteIsNoOp(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	assert.NoError(t, f.svc.UpdateNote(context.Background(), uuid.New(), UpdateNoteParams{Title: "x"}))
	assert.Empty(t, f.svc.Notes())
}

func TestNoteService_UpdateNote_ReminderEnabledWithoutDate(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(context.Background()))

	err := f.svc.UpdateNote(context.Background(), id, UpdateNoteParams{
		Title:           "Note",
		ReminderEnabled: true,
	})
	assert.ErrorIs(t, err, ErrReminderDateRequired)
}

func TestNoteService_UpdateNote_DisablingReminderCancels(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))

	at := time.Now().UTC().Add(time.Hour)
	require.NoError(t, f.svc.ScheduleReminder(ctx, id, at))

	reqs := f.sched.scheduledRequests()
	require.Len(t, reqs, 1)

	err := f.svc.UpdateNote(ctx, id, UpdateNoteParams{Title: "Note", ReminderEnabled: false})
	require.NoError(t, err)

	assert.Equal(t, []string{reqs[0].ID}, f.sched.cancelledIDs())

	stored, err := f.notes.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.ReminderDate)
	assert.Nil(t, stored.ReminderID)
}

func TestNoteService_SearchFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	now := time.Now().UTC()
	matchTitle := f.seedNote(t, "Grocery Run", "apples", nil, now)
	matchBody := f.seedNote(t, "Plans", "buy GROCERIES tomorrow", nil, now.Add(time.Second))
	f.seedNote(t, "Unrelated", "nothing here", nil, now.Add(2*time.Second))
	require.NoError(t, f.svc.LoadAll(ctx))

	f.svc.SetSearchText("  grocer  ")
	visible := f.svc.Notes()
	require.Len(t, visible, 2)
	assert.Equal(t, matchBody, visible[0].ID)
	assert.Equal(t, matchTitle, visible[1].ID)
	assert.Contains(t, f.handler.reasons(), events.ReasonFilterChanged)

	// Clearing the search restores the full sequence.
	f.svc.SetSearchText("")
	assert.Len(t, f.svc.Notes(), 3)
}

func TestNoteService_TagFilterANDSemantics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	now := time.Now().UTC()
	both := f.seedNote(t, "Both", "", []string{"Work", "urgent"}, now)
	f.seedNote(t, "WorkOnly", "", []string{"work"}, now.Add(time.Second))
	f.seedNote(t, "Untagged", "", nil, now.Add(2*time.Second))
	require.NoError(t, f.svc.LoadAll(ctx))

	f.svc.SetSelectedTags([]string{"work", "URGENT"})
	visible := f.svc.Notes()
	require.Len(t, visible, 1)
	assert.Equal(t, both, visible[0].ID)

	f.svc.SetSelectedTags(nil)
	assert.Len(t, f.svc.Notes(), 3)
}

func TestNoteService_SortOrderAndStability(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	base := time.Now().UTC().Truncate(time.Minute)
	oldest := f.seedNote(t, "Oldest", "", nil, base.Add(-time.Hour))
	tieFirst := f.seedNote(t, "TieFirst", "", nil, base)
	tieSecond := f.seedNote(t, "TieSecond", "", nil, base)
	require.NoError(t, f.svc.LoadAll(ctx))

	// Ties keep insertion order across repeated reads.
	for i := 0; i < 3; i++ {
		visible := f.svc.Notes()
		require.Len(t, visible, 3)
		assert.Equal(t, tieFirst, visible[0].ID)
		assert.Equal(t, tieSecond, visible[1].ID)
		assert.Equal(t, oldest, visible[2].ID)
	}
}

func TestNoteService_LoadAllIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	now := time.Now().UTC()
	f.seedNote(t, "A", "", []string{"x"}, now)
	f.seedNote(t, "B", "", []string{"y"}, now.Add(time.Second))

	require.NoError(t, f.svc.LoadAll(ctx))
	first := f.svc.Notes()
	firstTags := f.svc.AllTags()

	require.NoError(t, f.svc.LoadAll(ctx))
	second := f.svc.Notes()

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.Equal(t, firstTags, f.svc.AllTags())
}

func TestNoteService_AllTags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	now := time.Now().UTC()
	f.seedNote(t, "A", "", []string{"Zebra", " work "}, now)
	f.seedNote(t, "B", "", []string{"WORK", "alpha"}, now)
	require.NoError(t, f.svc.LoadAll(ctx))

	assert.Equal(t, []string{"alpha", "work", "zebra"}, f.svc.AllTags())
}

func TestNoteService_ScheduleReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Dentist", "bring insurance card", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))

	at := time.Date(2026, 9, 1, 9, 30, 45, 0, time.UTC)
	require.NoError(t, f.svc.ScheduleReminder(ctx, id, at))

	reqs := f.sched.scheduledRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Dentist", reqs[0].Title)
	assert.Equal(t, "bring insurance card", reqs[0].Body)

	stored, err := f.notes.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.ReminderID)
	assert.Equal(t, reqs[0].ID, *stored.ReminderID)
	require.NotNil(t, stored.ReminderDate)
	// Seconds are dropped before the date is persisted.
	assert.Equal(t, time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC), *stored.ReminderDate)
	assert.Contains(t, f.handler.reasons(), events.ReasonReminderSet)
}

func TestNoteService_ScheduleReminder_ReusesIdentifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))

	first := time.Now().UTC().Add(time.Hour)
	require.NoError(t, f.svc.ScheduleReminder(ctx, id, first))
	require.NoError(t, f.svc.ScheduleReminder(ctx, id, first.Add(time.Hour)))

	reqs := f.sched.scheduledRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].ID, reqs[1].ID)
	// Replacing via the same identifier needs no explicit cancel.
	assert.Empty(t, f.sched.cancelledIDs())
}

func TestNoteService_ScheduleReminder_FailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)
	f.sched.scheduleErr = scheduler.ErrPermissionDenied

	pending := time.Now().UTC().Add(time.Hour)
	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))
	require.NoError(t, f.svc.UpdateNote(ctx, id, UpdateNoteParams{
		Title:           "Note",
		ReminderEnabled: true,
		ReminderDate:    &pending,
	}))

	err := f.svc.ScheduleReminder(ctx, id, pending)
	assert.ErrorIs(t, err, scheduler.ErrPermissionDenied)

	stored, getErr := f.notes.GetByID(ctx, id)
	require.NoError(t, getErr)
	// The pending date survives a failed schedule; no identifier is stored.
	require.NotNil(t, stored.ReminderDate)
	assert.Nil(t, stored.ReminderID)
}

func TestNoteService_ScheduleReminder_NotFound(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	err := f.svc.ScheduleReminder(context.Background(), uuid.New(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteService_CancelReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))
	require.NoError(t, f.svc.ScheduleReminder(ctx, id, time.Now().UTC().Add(time.Hour)))

	reqs := f.sched.scheduledRequests()
	require.Len(t, reqs, 1)

	require.NoError(t, f.svc.CancelReminder(ctx, id))
	assert.Equal(t, []string{reqs[0].ID}, f.sched.cancelledIDs())

	stored, err := f.notes.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.ReminderDate)
	assert.Nil(t, stored.ReminderID)
	assert.Contains(t, f.handler.reasons(), events.ReasonReminderCleared)
}

func TestNoteService_CancelReminder_MissingNoteIsNoOp(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	assert.NoError(t, f.svc.CancelReminder(context.Background(), uuid.New()))
	assert.Empty(t, f.sched.cancelledIDs())
}

func TestNoteService_DeleteNote_CancelsReminderFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))
	require.NoError(t, f.svc.ScheduleReminder(ctx, id, time.Now().UTC().Add(time.Hour)))

	reqs := f.sched.scheduledRequests()
	require.Len(t, reqs, 1)

	require.NoError(t, f.svc.DeleteNote(ctx, id))
	assert.Equal(t, []string{reqs[0].ID}, f.sched.cancelledIDs())
	assert.Empty(t, f.svc.Notes())

	_, err := f.notes.GetByID(ctx, id)
	assert.ErrorIs(t, err, store.ErrNoteNotFound)
}

func TestNoteService_DeleteNote_NoReminderNeverCallsScheduler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))

	require.NoError(t, f.svc.DeleteNote(ctx, id))
	assert.Empty(t, f.sched.cancelledIDs())
	assert.Empty(t, f.sched.scheduledRequests())
}

func TestNoteService_DeleteNote_MissingNoteIsNoOp(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	assert.NoError(t, f.svc.DeleteNote(context.Background(), uuid.New()))
}

func TestNoteService_ScheduleReminder_CancelWinsRace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))

	f.sched.block = make(chan struct{})
	f.sched.scheduleCalled = make(chan struct{}, 1)

	scheduleDone := make(chan error, 1)
	go func() {
		scheduleDone <- f.svc.ScheduleReminder(ctx, id, time.Now().UTC().Add(time.Hour))
	}()

	// Wait until the schedule request is in flight, then cancel while the
	// platform confirmation is still pending.
	<-f.sched.scheduleCalled
	require.NoError(t, f.svc.CancelReminder(ctx, id))

	close(f.sched.block)
	err := <-scheduleDone
	assert.ErrorIs(t, err, ErrReminderSuperseded)

	// The stale platform schedule was removed.
	reqs := f.sched.scheduledRequests()
	require.Len(t, reqs, 1)
	assert.Contains(t, f.sched.cancelledIDs(), reqs[0].ID)

	stored, getErr := f.notes.GetByID(ctx, id)
	require.NoError(t, getErr)
	assert.Nil(t, stored.ReminderID)
	assert.Nil(t, stored.ReminderDate)
}

func TestNoteService_ScheduleReminder_UpdateDisableWinsRace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newServiceFixture(t)

	id := f.seedNote(t, "Note", "body", nil, time.Now().UTC())
	require.NoError(t, f.svc.LoadAll(ctx))

	f.sched.block = make(chan struct{})
	f.sched.scheduleCalled = make(chan struct{}, 1)

	scheduleDone := make(chan error, 1)
	go func() {
		scheduleDone <- f.svc.ScheduleReminder(ctx, id, time.Now().UTC().Add(time.Hour))
	}()

	// Disable the reminder through an update while the platform
	// confirmation is still pending; the late success must not resurrect
	// the reminder the update just turned off.
	<-f.sched.scheduleCalled
	require.NoError(t, f.svc.UpdateNote(ctx, id, UpdateNoteParams{
		Title:           "Note",
		Content:         "body",
		ReminderEnabled: false,
	}))

	close(f.sched.block)
	err := <-scheduleDone
	assert.ErrorIs(t, err, ErrReminderSuperseded)

	// The stale platform schedule was removed.
	reqs := f.sched.scheduledRequests()
	require.Len(t, reqs, 1)
	assert.Contains(t, f.sched.cancelledIDs(), reqs[0].ID)

	stored, getErr := f.notes.GetByID(ctx, id)
	require.NoError(t, getErr)
	assert.Nil(t, stored.ReminderID)
	assert.Nil(t, stored.ReminderDate)
}
