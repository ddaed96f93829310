package session

import (
	"time"

	"github.com/dmitrijs2005/authserver/internal/common"
)

// Manager owns all session state. It is only ever called from the single
// dispatch goroutine, so it needs no locking.
type Manager struct {
	ttl      time.Duration
	sessions map[string]*Session // keyed by session id

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewManager returns a Manager whose sessions expire ttl after creation.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// New creates a session for the given user, registers it, and returns it.
func (m *Manager) New(userID, username string, admin bool) *Session {
	s := newSession(userID, username, admin, m.now().Add(m.ttl))
	m.sessions[s.ID] = s
	return s
}

// GetBySessionID returns the session with the given id. An empty id, an
// unknown id, or an expired session all yield common.ErrorInvalidSession;
// expiry is checked here so a stale session can never authorize anything
// even before the next sweep.
func (m *Manager) GetBySessionID(id string) (*Session, error) {
	if id == "" {
		return nil, common.ErrorInvalidSession
	}
	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return nil, common.ErrorInvalidSession
	}
	return s, nil
}

// RemoveByUserID drops every session belonging to the given user id.
func (m *Manager) RemoveByUserID(userID string) {
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
}

// RemoveBySessionID drops the session with the given id, if present.
func (m *Manager) RemoveBySessionID(id string) {
	delete(m.sessions, id)
}

// RemoveByUsername drops every session whose denormalized username matches.
func (m *Manager) RemoveByUsername(username string) {
	for id, s := range m.sessions {
		if s.Username == username {
			delete(m.sessions, id)
		}
	}
}

// UpdateUsername rewrites the denormalized username on every session of
// oldUsername after the user record was renamed.
func (m *Manager) UpdateUsername(oldUsername, newUsername string) {
	for _, s := range m.sessions {
		if s.Username == oldUsername {
			s.Username = newUsername
		}
	}
}

// UpdateAdmin rewrites the denormalized admin flag on every session of
// username after the user record changed.
func (m *Manager) UpdateAdmin(username string, admin bool) {
	for _, s := range m.sessions {
		if s.Username == username {
			s.Admin = admin
		}
	}
}

// Clean sweeps every expired session. The dispatcher calls this before
// servicing each request, so a session is never stale by more than one
// event-loop tick.
func (m *Manager) Clean() {
	now := m.now()
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
		}
	}
}

// Len returns the number of registered sessions, expired or not.
func (m *Manager) Len() int {
	return len(m.sessions)
}
