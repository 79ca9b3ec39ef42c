package users

import "context"

type UserRepo interface {
	Upsert(user *User) error
	Delete(id string) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	SetBlocked(id string, blocked bool) error
}

// Resolver adapts a UserRepo to the identity lookup used when tokens are issued.
type Resolver struct {
	repo UserRepo
}

func NewResolver(repo UserRepo) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the current snapshot for userID. Blocked users resolve as
// ErrNotFound so they cannot obtain new access tokens.
func (r *Resolver) Resolve(_ context.Context, userID string) (Snapshot, error) {
	user, err := r.repo.GetByID(userID)
	if err != nil {
		return Snapshot{}, err
	}
	if user.Blocked {
		return Snapshot{}, ErrNotFound
	}
	return user.Snapshot(), nil
}
