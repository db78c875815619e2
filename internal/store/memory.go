// Package store provides storage backends for the chatbot.
//
// This file implements the default in-memory session store.
package store

import (
	"log/slog"
	"sync"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
)

// InMemoryStore keeps sessions in a mutex-guarded map. Sessions live for the
// process lifetime; there is no TTL or eviction.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	slog.Debug("Creating InMemoryStore")
	return &InMemoryStore{sessions: make(map[string]models.Session)}
}

// GetSession retrieves the session for a user id, or nil if absent.
func (s *InMemoryStore) GetSession(userID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate stored state without SaveSession.
	cp := session
	cp.Turns = append([]models.Turn(nil), session.Turns...)
	return &cp, nil
}

// SaveSession stores or replaces the session for its user id.
func (s *InMemoryStore) SaveSession(session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.Turns = append([]models.Turn(nil), session.Turns...)
	s.sessions[session.UserID] = session
	slog.Debug("InMemoryStore SaveSession succeeded", "userID", session.UserID, "turns", len(session.Turns))
	return nil
}

// DeleteSession removes the session for a user id.
func (s *InMemoryStore) DeleteSession(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	slog.Debug("InMemoryStore DeleteSession succeeded", "userID", userID)
	return nil
}
