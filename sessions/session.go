package sessions

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// State is the revocation state of a session. The only transition is
// StateValid to StateRevoked.
type State string

const (
	StateValid   State = "valid"
	StateRevoked State = "revoked"
)

// Session anchors a refresh token. One user may hold many sessions, one per
// device or browser.
type Session struct {
	ID        string    `json:"id"`         // Opaque identifier, assigned by the store
	UserID    string    `json:"user_id"`    // Owning user
	UserAgent string    `json:"user_agent"` // Stored for audit only
	State     State     `json:"state"`      // valid or revoked
	CreatedAt time.Time `json:"created_at"` // Set by the store
	UpdatedAt time.Time `json:"updated_at"` // Set by the store on revocation
}

func (s *Session) Valid() bool {
	return s.State == StateValid
}

// Revoke moves the session to StateRevoked. It reports whether the state
// changed; revoking an already revoked session is a no-op.
func (s *Session) Revoke(at time.Time) bool {
	if s.State == StateRevoked {
		return false
	}
	s.State = StateRevoked
	s.UpdatedAt = at
	return true
}
