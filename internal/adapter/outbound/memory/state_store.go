// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"sync"

	"github.com/xetiic/busdesk/internal/domain/session"
)

// StateStore implements session.StateStore with an in-memory map.
// Thread-safe for concurrent access. For development/testing only.
type StateStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{entries: make(map[string][]byte)}
}

// Get retrieves a value. ok is false when the key is absent.
func (s *StateStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	// Return a copy to prevent mutation.
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

// Set stores a value.
func (s *StateStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = cp
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *StateStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries. Useful in tests.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Compile-time interface verification.
var _ session.StateStore = (*StateStore)(nil)
