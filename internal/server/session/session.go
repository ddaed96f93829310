// Package session owns the in-memory table of active sessions.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record of an authenticated client. Username
// and Admin are denormalized copies of the user record; the manager keeps
// them in sync when the underlying user is renamed or has its admin flag
// changed.
type Session struct {
	ID        string
	UserID    string
	Username  string
	Admin     bool
	ExpiresAt time.Time
}

func newSession(userID, username string, admin bool, expiresAt time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		Admin:     admin,
		ExpiresAt: expiresAt,
	}
}
