// Package session manages per-user conversation sessions on top of a store
// backend.
//
// The manager layers per-user mutual exclusion over the Store so that
// concurrent requests for the same user id serialize deterministically: all
// mutation happens inside Update, under that user's lock. Requests for
// different users never contend.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/store"
)

// Manager owns session lifecycle: lazy creation, transcript appends, profile
// mutation, and reset.
type Manager struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a session manager backed by the given store.
func NewManager(st store.Store) *Manager {
	slog.Debug("Creating session Manager")
	return &Manager{
		store: st,
		locks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex dedicated to one user id, creating it on first
// contact. Lock entries are never removed; they are tiny and bounded by the
// user population, matching the store's no-eviction semantics.
func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

// newSession creates an empty session for a user id.
func newSession(userID string) models.Session {
	now := time.Now()
	return models.Session{
		UserID:    userID,
		Turns:     []models.Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update runs fn against the user's session under that user's lock and
// persists the result. The session is created lazily if absent. fn may append
// turns and mutate the profile; returning an error aborts the save.
func (m *Manager) Update(userID string, fn func(session *models.Session) error) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.store.GetSession(userID)
	if err != nil {
		slog.Error("Manager Update load failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to load session for %s: %w", userID, err)
	}
	if session == nil {
		slog.Debug("Manager Update creating session", "userID", userID)
		created := newSession(userID)
		session = &created
	}

	if err := fn(session); err != nil {
		return err
	}

	// Never persist a profile that violates its own invariants; the stored
	// state drives the next turn's routing.
	if err := session.Profile.Validate(); err != nil {
		slog.Error("Manager Update produced invalid profile", "error", err, "userID", userID)
		return fmt.Errorf("invalid profile state for %s: %w", userID, err)
	}

	session.UpdatedAt = time.Now()
	if err := m.store.SaveSession(*session); err != nil {
		slog.Error("Manager Update save failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save session for %s: %w", userID, err)
	}
	return nil
}

// Get returns the user's session, or an empty (unsaved) session if none
// exists yet. Reads take the user lock so they observe complete turns.
func (m *Manager) Get(userID string) (models.Session, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.store.GetSession(userID)
	if err != nil {
		slog.Error("Manager Get failed", "error", err, "userID", userID)
		return models.Session{}, fmt.Errorf("failed to load session for %s: %w", userID, err)
	}
	if session == nil {
		return newSession(userID), nil
	}
	return *session, nil
}

// Reset clears the user's transcript and profile.
func (m *Manager) Reset(userID string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.DeleteSession(userID); err != nil {
		slog.Error("Manager Reset failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to reset session for %s: %w", userID, err)
	}
	slog.Info("Manager Reset succeeded", "userID", userID)
	return nil
}

// AppendTurn appends one turn to the user's transcript.
func AppendTurn(session *models.Session, role models.Role, content string) {
	session.Turns = append(session.Turns, models.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}
