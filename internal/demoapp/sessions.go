package demoapp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

// DefaultSessionIdleTimeout is how long a session stays valid without
// requests.
const DefaultSessionIdleTimeout = 30 * time.Minute

// sessionState tracks a logged-in user
type sessionState struct {
	userID     uuid.UUID
	lastActive time.Time
}

// SessionManager hands out session tokens for browser cookies and API
// logins and expires them after a period of inactivity.
type SessionManager struct {
	sessions   map[string]*sessionState
	sessionsMu sync.RWMutex

	idleTimeout time.Duration
	logger      *slog.Logger

	cleanupCtx       context.Context
	cleanupCtxCancel context.CancelFunc
}

// NewSessionManager creates a new SessionManager and starts the cleanup goroutine
func NewSessionManager(idleTimeout time.Duration, logger *slog.Logger) *SessionManager {
	if idleTimeout == 0 {
		idleTimeout = DefaultSessionIdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	cleanupCtx, cleanupCtxCancel := context.WithCancel(context.Background())

	sm := &SessionManager{
		sessions:         make(map[string]*sessionState),
		idleTimeout:      idleTimeout,
		logger:           logger,
		cleanupCtx:       cleanupCtx,
		cleanupCtxCancel: cleanupCtxCancel,
	}

	go sm.cleanupLoop()

	return sm
}

// Create starts a session for userID and returns its token.
func (sm *SessionManager) Create(userID uuid.UUID) string {
	token := uuid.Must(uuid.NewV4()).String()

	sm.sessionsMu.Lock()
	sm.sessions[token] = &sessionState{userID: userID, lastActive: time.Now()}
	sm.sessionsMu.Unlock()

	return token
}

// Get returns the user of a session and marks it active.
func (sm *SessionManager) Get(token string) (uuid.UUID, bool) {
	sm.sessionsMu.Lock()
	defer sm.sessionsMu.Unlock()

	state, exists := sm.sessions[token]
	if !exists {
		return uuid.Nil, false
	}
	if time.Since(state.lastActive) > sm.idleTimeout {
		delete(sm.sessions, token)
		return uuid.Nil, false
	}
	state.lastActive = time.Now()
	return state.userID, true
}

// Delete ends a session
func (sm *SessionManager) Delete(token string) {
	sm.sessionsMu.Lock()
	delete(sm.sessions, token)
	sm.sessionsMu.Unlock()
}

// DeleteUser ends every session of a user
func (sm *SessionManager) DeleteUser(userID uuid.UUID) {
	sm.sessionsMu.Lock()
	defer sm.sessionsMu.Unlock()

	for token, state := range sm.sessions {
		if state.userID == userID {
			delete(sm.sessions, token)
		}
	}
}

// Len returns the number of active sessions
func (sm *SessionManager) Len() int {
	sm.sessionsMu.RLock()
	defer sm.sessionsMu.RUnlock()
	return len(sm.sessions)
}

// Close stops the cleanup goroutine and drops all sessions
func (sm *SessionManager) Close() {
	sm.cleanupCtxCancel()

	sm.sessionsMu.Lock()
	defer sm.sessionsMu.Unlock()
	clear(sm.sessions)
}

// cleanupLoop periodically removes idle sessions
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-sm.cleanupCtx.Done():
			return
		case <-ticker.C:
			sm.cleanupIdleSessions()
		}
	}
}

func (sm *SessionManager) cleanupIdleSessions() {
	now := time.Now()

	sm.sessionsMu.Lock()
	defer sm.sessionsMu.Unlock()

	for token, state := range sm.sessions {
		if idle := now.Sub(state.lastActive); idle > sm.idleTimeout {
			sm.logger.Debug("Expiring idle session", slog.String("user", state.userID.String()), slog.Duration("idle", idle))
			delete(sm.sessions, token)
		}
	}
}
