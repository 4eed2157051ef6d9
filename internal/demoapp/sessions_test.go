package demoapp

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
)

func TestSessionManager_Get_NonExistent(t *testing.T) {
	sm := NewSessionManager(time.Minute, nil)
	defer sm.Close()

	if userID, ok := sm.Get("unknown"); ok {
		t.Errorf("expected no session, got user %s", userID)
	}
}

func TestSessionManager_CreateAndGet(t *testing.T) {
	sm := NewSessionManager(time.Minute, nil)
	defer sm.Close()

	userID := uuid.Must(uuid.NewV7())
	token := sm.Create(userID)

	got, ok := sm.Get(token)
	if !ok {
		t.Fatal("expected session to exist")
	}
	if got != userID {
		t.Errorf("expected user %s, got %s", userID, got)
	}

	if other := sm.Create(userID); other == token {
		t.Error("expected a new token per session")
	}
	if sm.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", sm.Len())
	}
}

func TestSessionManager_Delete(t *testing.T) {
	sm := NewSessionManager(time.Minute, nil)
	defer sm.Close()

	userID := uuid.Must(uuid.NewV7())
	token := sm.Create(userID)
	sm.Delete(token)

	if _, ok := sm.Get(token); ok {
		t.Error("expected session to be deleted")
	}
}

func TestSessionManager_DeleteUser(t *testing.T) {
	sm := NewSessionManager(time.Minute, nil)
	defer sm.Close()

	alice := uuid.Must(uuid.NewV7())
	bob := uuid.Must(uuid.NewV7())
	sm.Create(alice)
	sm.Create(alice)
	bobToken := sm.Create(bob)

	sm.DeleteUser(alice)

	if sm.Len() != 1 {
		t.Errorf("expected 1 session, got %d", sm.Len())
	}
	if _, ok := sm.Get(bobToken); !ok {
		t.Error("expected bob's session to survive")
	}
}

func TestSessionManager_IdleExpiry(t *testing.T) {
	sm := NewSessionManager(50*time.Millisecond, nil)
	defer sm.Close()

	token := sm.Create(uuid.Must(uuid.NewV7()))

	time.Sleep(200 * time.Millisecond)

	if _, ok := sm.Get(token); ok {
		t.Error("expected idle session to expire")
	}
	if sm.Len() != 0 {
		t.Errorf("expected cleanup to remove the session, got %d", sm.Len())
	}
}
