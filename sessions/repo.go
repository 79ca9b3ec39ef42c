package sessions

import "context"

// Repo persists sessions. Implementations must be safe for concurrent use and
// give read-after-write consistency per session: once Invalidate returns, every
// later FindByID for that id sees StateRevoked.
type Repo interface {
	// Create stores a new valid session and returns it with its generated ID
	Create(ctx context.Context, userID, userAgent string) (*Session, error)

	// FindByID returns ErrNotFound when no session has the given id
	FindByID(ctx context.Context, id string) (*Session, error)

	// Invalidate revokes a session. Revoking an already revoked session succeeds;
	// an unknown id returns ErrNotFound
	Invalidate(ctx context.Context, id string) error

	// InvalidateAllForUser revokes every valid session of userID and returns how
	// many were revoked by this call
	InvalidateAllForUser(ctx context.Context, userID string) (int, error)

	// ListValidForUser returns the user's valid sessions, newest first
	ListValidForUser(ctx context.Context, userID string) ([]*Session, error)
}
