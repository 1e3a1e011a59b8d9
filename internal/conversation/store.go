// Package conversation owns per-thread message history for active sessions.
package conversation

import (
	"sync"
)

// Store is an in-memory, concurrency-safe mapping from conversation ID to
// ordered turn history. Histories live only for the duration of a session;
// nothing survives a process restart.
type Store struct {
	histories map[string][]Turn
	mu        sync.RWMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		histories: make(map[string][]Turn),
	}
}

// Snapshot returns a point-in-time copy of the history for conversationID.
// Unknown IDs yield an empty history; Snapshot never fails.
func (s *Store) Snapshot(conversationID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.histories[conversationID]
	if !exists {
		return nil
	}

	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// Append adds one turn to the history for conversationID, creating the
// history implicitly if none exists.
func (s *Store) Append(conversationID string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[conversationID] = append(s.histories[conversationID], turn)
}

// AppendExchange adds the user and assistant turns of one completed
// exchange. Both turns land adjacently: no other append on the same
// conversation can interleave between them.
func (s *Store) AppendExchange(conversationID string, user, assistant Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[conversationID] = append(s.histories[conversationID], user, assistant)
}

// Clear deletes the history for conversationID entirely.
// Returns whether a history existed.
func (s *Store) Clear(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.histories[conversationID]
	delete(s.histories, conversationID)
	return existed
}

// Len returns the number of turns stored for conversationID.
func (s *Store) Len(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.histories[conversationID])
}

// Active returns the number of conversations with stored history.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.histories)
}
