// Package memory provides in-memory store implementations. They back the
// no-database development mode and the service-level tests; nothing is
// durable across restarts.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/remindly/remindly-api/internal/domain"
	"github.com/remindly/remindly-api/internal/store"
)

// entry pairs a stored note with its insertion sequence so List can break
// ModifiedAt ties by original load order.
type entry struct {
	note *domain.Note
	seq  uint64
}

// MemoryNoteStore implements the store.NoteStore interface with an
// in-process map. All methods are safe for concurrent use.
type MemoryNoteStore struct {
	mu      sync.RWMutex
	notes   map[uuid.UUID]entry
	nextSeq uint64
}

// NewMemoryNoteStore creates a new empty MemoryNoteStore.
func NewMemoryNoteStore() *MemoryNoteStore {
	return &MemoryNoteStore{
		notes: make(map[uuid.UUID]entry),
	}
}

// Ensure MemoryNoteStore implements store.NoteStore interface
var _ store.NoteStore = (*MemoryNoteStore)(nil)

// Create implements store.NoteStore.Create.
func (s *MemoryNoteStore) Create(ctx context.Context, note *domain.Note) error {
	if err := note.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[note.ID]; exists {
		return store.ErrDuplicate
	}

	s.notes[note.ID] = entry{note: note.Clone(), seq: s.nextSeq}
	s.nextSeq++
	return nil
}

// GetByID implements store.NoteStore.GetByID.
func (s *MemoryNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.notes[id]
	if !ok {
		return nil, store.ErrNoteNotFound
	}
	return e.note.Clone(), nil
}

// Update implements store.NoteStore.Update.
func (s *MemoryNoteStore) Update(ctx context.Context, note *domain.Note) error {
	if err := note.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.notes[note.ID]
	if !ok {
		return store.ErrNoteNotFound
	}

	// The insertion sequence is kept across updates so tie ordering in
	// List stays stable.
	s.notes[note.ID] = entry{note: note.Clone(), seq: e.seq}
	return nil
}

// Delete implements store.NoteStore.Delete. Deleting an absent note is a no-op.
func (s *MemoryNoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
	return nil
}

// List implements store.NoteStore.List.
func (s *MemoryNoteStore) List(ctx context.Context) ([]*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entry, 0, len(s.notes))
	for _, e := range s.notes {
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.note.ModifiedAt.Equal(b.note.ModifiedAt) {
			return a.note.ModifiedAt.After(b.note.ModifiedAt)
		}
		return a.seq < b.seq
	})

	notes := make([]*domain.Note, 0, len(entries))
	for _, e := range entries {
		notes = append(notes, e.note.Clone())
	}
	return notes, nil
}
