package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Permission is the notification-permission state of the alerting boundary.
type Permission string

// Possible permission states.
const (
	PermissionUndetermined Permission = "undetermined"
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
)

// LocalSchedulerConfig holds configuration for the in-process scheduler.
type LocalSchedulerConfig struct {
	// InitialPermission is the permission state at startup.
	InitialPermission Permission

	// DispatchBuffer is the buffer size of the delivery queue between the
	// firing timers and the dispatcher goroutine. If zero, defaults to 16.
	DispatchBuffer int
}

// delivery is a fired reminder waiting for the dispatcher.
type delivery struct {
	id    string
	title string
	body  string
}

// pendingReminder tracks a scheduled, not yet fired reminder.
type pendingReminder struct {
	timer *time.Timer
	at    time.Time
}

// LocalScheduler is an in-process implementation of ReminderScheduler.
// It fires reminders through per-identifier timers and hands deliveries to
// an injected Notifier on a single dispatcher goroutine.
//
// The process-wide instance is constructed in cmd/server and injected as a
// ReminderScheduler; tests substitute fakes.
type LocalScheduler struct {
	mu         sync.Mutex
	permission Permission
	pending    map[string]*pendingReminder
	delivered  map[string]time.Time
	stopped    bool

	prompter   Prompter
	notifier   Notifier
	deliveries chan delivery

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// Ensure LocalScheduler implements the ReminderScheduler interface
var _ ReminderScheduler = (*LocalScheduler)(nil)

// NewLocalScheduler creates a new LocalScheduler.
// If prompter is nil, an undetermined permission state resolves to denied.
// If logger is nil, a default logger will be used.
func NewLocalScheduler(
	cfg LocalSchedulerConfig,
	prompter Prompter,
	notifier Notifier,
	logger *slog.Logger,
) *LocalScheduler {
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 16
	}
	if cfg.InitialPermission == "" {
		cfg.InitialPermission = PermissionUndetermined
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LocalScheduler{
		permission: cfg.InitialPermission,
		pending:    make(map[string]*pendingReminder),
		delivered:  make(map[string]time.Time),
		prompter:   prompter,
		notifier:   notifier,
		deliveries: make(chan delivery, cfg.DispatchBuffer),
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With("component", "local_scheduler"),
	}
}

// Start launches the dispatcher goroutine.
func (s *LocalScheduler) Start() {
	s.wg.Add(1)
	go s.dispatcher()
}

// Stop shuts the scheduler down: all pending timers are stopped, the
// dispatcher drains and exits. Further Schedule calls fail with ErrStopped.
func (s *LocalScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.cancelFunc()
	s.wg.Wait()
}

// RequestPermission implements ReminderScheduler.RequestPermission.
// An undetermined state prompts exactly once per call and caches the answer.
func (s *LocalScheduler) RequestPermission(ctx context.Context) (bool, error) {
	s.mu.Lock()
	state := s.permission
	s.mu.Unlock()

	switch state {
	case PermissionGranted:
		return true, nil
	case PermissionDenied:
		return false, nil
	}

	granted := false
	if s.prompter != nil {
		granted = s.prompter.Prompt(ctx)
	}

	s.mu.Lock()
	if granted {
		s.permission = PermissionGranted
	} else {
		s.permission = PermissionDenied
	}
	s.mu.Unlock()

	s.logger.Info("notification permission resolved", "granted", granted)
	return granted, nil
}

// Schedule implements ReminderScheduler.Schedule.
// The target time is truncated to the minute and empty title/body fall back
// to the placeholder strings. An existing schedule for the same identifier
// is replaced.
func (s *LocalScheduler) Schedule(ctx context.Context, req Request) <-chan Result {
	resultCh := make(chan Result, 1)

	go func() {
		resultCh <- s.schedule(ctx, req)
	}()

	return resultCh
}

func (s *LocalScheduler) schedule(ctx context.Context, req Request) Result {
	granted, err := s.RequestPermission(ctx)
	if err != nil {
		return Result{Scheduled: false, Err: err}
	}
	if !granted {
		s.logger.Warn("reminder not scheduled, permission denied", "reminder_id", req.ID)
		return Result{Scheduled: false, Err: ErrPermissionDenied}
	}

	title := req.Title
	if title == "" {
		title = DefaultTitle
	}
	body := req.Body
	if body == "" {
		body = DefaultBody
	}

	// Reminders fire within a one-minute window, never at sub-minute
	// precision. Past times are left to the timer, which fires immediately.
	at := req.At.Truncate(time.Minute)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return Result{Scheduled: false, Err: ErrStopped}
	}

	// Last-write-wins per identifier: replace any prior schedule.
	if prior, ok := s.pending[req.ID]; ok {
		prior.timer.Stop()
	}
	delete(s.delivered, req.ID)

	id := req.ID
	p := &pendingReminder{at: at}
	p.timer = time.AfterFunc(time.Until(at), func() {
		s.fire(id, p, title, body)
	})
	s.pending[id] = p

	s.logger.Info("reminder scheduled",
		"reminder_id", id,
		"fire_at", at)
	return Result{Scheduled: true}
}

// Cancel implements ReminderScheduler.Cancel.
// It removes both pending and delivered records and is a no-op for unknown
// identifiers.
func (s *LocalScheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
		s.logger.Info("pending reminder cancelled", "reminder_id", id)
	}
	delete(s.delivered, id)
	return nil
}

// PendingAt reports the fire time of a pending reminder, if one exists.
func (s *LocalScheduler) PendingAt(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return time.Time{}, false
	}
	return p.at, true
}

// WasDelivered reports whether the identifier has fired and not been
// cancelled since.
func (s *LocalScheduler) WasDelivered(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.delivered[id]
	return ok
}

// fire moves a due reminder from pending to delivered and queues it for the
// dispatcher. Runs on the timer goroutine.
func (s *LocalScheduler) fire(id string, p *pendingReminder, title, body string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if current, ok := s.pending[id]; !ok || current != p {
		// Cancelled or replaced between firing and locking.
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.delivered[id] = time.Now().UTC()
	s.mu.Unlock()

	select {
	case s.deliveries <- delivery{id: id, title: title, body: body}:
	case <-s.ctx.Done():
	}
}

// dispatcher hands fired reminders to the notifier one at a time.
func (s *LocalScheduler) dispatcher() {
	defer s.wg.Done()

	s.logger.Debug("starting reminder dispatcher")

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("stopping reminder dispatcher")
			return

		case d := <-s.deliveries:
			s.logger.Info("delivering reminder", "reminder_id", d.id)
			s.notifier.Deliver(s.ctx, d.id, d.title, d.body)
		}
	}
}
