package auth

import (
	"sync"
	"time"
)

// Store is the single source of truth for the current session state.
// Multiple readers may load snapshots concurrently; a writer replaces the
// whole state atomically. Nothing under the lock performs I/O, so no
// operation blocks for longer than the copy itself.
type Store struct {
	mu    sync.RWMutex
	state *State
}

// NewStore returns an empty store (not authenticated).
func NewStore() *Store {
	return &Store{}
}

// Load returns a snapshot of the current state. The snapshot is a copy;
// mutating it has no effect on the store.
func (s *Store) Load() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return State{}, false
	}
	return *s.state, true
}

// Set replaces the stored state.
func (s *Store) Set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
}

// Clear drops the stored state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
}

// Valid reports whether a state is present and its ticket has not outlived
// ticketLifetime.
func (s *Store) Valid(ticketLifetime time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil && !s.state.ticket.Expired(ticketLifetime)
}
