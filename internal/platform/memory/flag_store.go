package memory

import (
	"context"
	"sync"

	"github.com/remindly/remindly-api/internal/store"
)

// MemoryFlagStore implements the store.FlagStore interface with an
// in-process map.
type MemoryFlagStore struct {
	mu    sync.RWMutex
	flags map[string]bool

	// FailSets forces Set to fail; used to test best-effort flag writes.
	FailSets bool
}

// NewMemoryFlagStore creates a new empty MemoryFlagStore.
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]bool)}
}

// Ensure MemoryFlagStore implements store.FlagStore interface
var _ store.FlagStore = (*MemoryFlagStore)(nil)

// Get implements store.FlagStore.Get. Unwritten flags read as false.
func (s *MemoryFlagStore) Get(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key], nil
}

// Set implements store.FlagStore.Set.
func (s *MemoryFlagStore) Set(ctx context.Context, key string, value bool) error {
	if s.FailSets {
		return store.NewStoreError("flag", "set", "flag writes disabled", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = value
	return nil
}
