// Package chathistory keeps per-session conversation history in process
// memory. History is append-only for the session's lifetime and is not
// persisted across restarts.
package chathistory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"hr-assistant/internal/model"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*conversation
}

type conversation struct {
	userID uint
	turns  []model.Turn
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*conversation)}
}

// Create opens a new conversation for the user, seeded with the given
// assistant greeting, and returns its id.
func (s *Store) Create(userID uint, greeting string) (string, []model.Turn) {
	id := uuid.NewString()
	turns := []model.Turn{{
		Role:      "assistant",
		Content:   greeting,
		CreatedAt: time.Now(),
	}}

	s.mu.Lock()
	s.sessions[id] = &conversation{userID: userID, turns: turns}
	s.mu.Unlock()

	return id, turns
}

// Append adds a turn to the conversation. Returns false if the session does
// not exist or belongs to a different user.
func (s *Store) Append(userID uint, sessionID string, turn model.Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.sessions[sessionID]
	if !ok || conv.userID != userID {
		return false
	}
	conv.turns = append(conv.turns, turn)
	return true
}

// History returns a copy of the conversation's turns in order.
func (s *Store) History(userID uint, sessionID string) ([]model.Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.sessions[sessionID]
	if !ok || conv.userID != userID {
		return nil, false
	}
	out := make([]model.Turn, len(conv.turns))
	copy(out, conv.turns)
	return out, true
}

// Delete drops the conversation if it belongs to the user.
func (s *Store) Delete(userID uint, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.sessions[sessionID]
	if !ok || conv.userID != userID {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}
