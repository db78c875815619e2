package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/Prajwal-ai11002/cci-global-bot/internal/models"
	"github.com/Prajwal-ai11002/cci-global-bot/internal/store"
)

func TestUpdateCreatesLazily(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())

	err := m.Update("u1", func(s *models.Session) error {
		AppendTurn(s, models.RoleUser, "hello")
		s.Profile.Name = "Jane Doe"
		return nil
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	got, err := m.Get("u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(got.Turns) != 1 || got.Turns[0].Content != "hello" {
		t.Errorf("unexpected turns: %+v", got.Turns)
	}
	if got.Profile.Name != "Jane Doe" {
		t.Errorf("unexpected profile: %+v", got.Profile)
	}
}

func TestUpdateErrorAbortsSave(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())

	wantErr := errors.New("boom")
	err := m.Update("u1", func(s *models.Session) error {
		AppendTurn(s, models.RoleUser, "should not persist")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}

	got, _ := m.Get("u1")
	if len(got.Turns) != 0 {
		t.Error("aborted update must not persist turns")
	}
}

func TestGetUnknownUserReturnsEmptySession(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())

	got, err := m.Get("nobody")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.UserID != "nobody" || len(got.Turns) != 0 {
		t.Errorf("expected empty session, got %+v", got)
	}
}

func TestResetClearsTranscriptAndProfile(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())

	_ = m.Update("u1", func(s *models.Session) error {
		AppendTurn(s, models.RoleUser, "hi")
		s.Profile.Name = "Jane"
		return nil
	})
	if err := m.Reset("u1"); err != nil {
		t.Fatalf("Reset error: %v", err)
	}

	got, _ := m.Get("u1")
	if len(got.Turns) != 0 || got.Profile.Name != "" {
		t.Errorf("expected cleared session, got %+v", got)
	}
}

func TestSessionIsolation(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())

	_ = m.Update("alice", func(s *models.Session) error {
		s.Profile.Name = "Alice"
		return nil
	})
	_ = m.Update("bob", func(s *models.Session) error {
		s.Profile.Name = "Bob"
		return nil
	})

	alice, _ := m.Get("alice")
	bob, _ := m.Get("bob")
	if alice.Profile.Name != "Alice" || bob.Profile.Name != "Bob" {
		t.Error("profiles for distinct users must be independent")
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Update("u1", func(s *models.Session) error {
				AppendTurn(s, models.RoleUser, "msg")
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := m.Get("u1")
	if len(got.Turns) != turns {
		t.Errorf("expected %d turns after concurrent updates, got %d", turns, len(got.Turns))
	}
}

func TestUpdateRejectsInvalidProfile(t *testing.T) {
	m := NewManager(store.NewInMemoryStore())

	err := m.Update("u1", func(s *models.Session) error {
		s.Profile.IsComplete = true
		s.Profile.Context.CollectingInfo = true
		return nil
	})
	if err == nil {
		t.Fatal("expected error for profile violating its invariants")
	}

	got, _ := m.Get("u1")
	if got.Profile.IsComplete {
		t.Error("invalid profile must not be persisted")
	}
}
