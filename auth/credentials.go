package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-task-server/users"
)

// Credentials checks email and password against the user store. It is the step
// before Login; the lifecycle itself only ever sees a user id.
type Credentials struct {
	users users.UserRepo
}

func NewCredentials(repo users.UserRepo) *Credentials {
	return &Credentials{users: repo}
}

// Verify returns the id of the user owning email when password matches. Unknown
// emails, wrong passwords and blocked users all return ErrInvalidCredentials.
func (c *Credentials) Verify(_ context.Context, email, password string) (string, error) {
	user, err := c.users.GetByEmail(users.NormalizeEmail(email))
	if errors.Is(err, users.ErrNotFound) {
		// Keep timing close to the found-user path.
		users.CheckPasswordHash(password, dummyHash)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("[Credentials.Verify] GetByEmail: %w", err)
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	if user.Blocked {
		return "", ErrInvalidCredentials
	}
	return user.ID, nil
}

// Well-formed bcrypt hash that matches no password; compared against when the
// email is unknown.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOa8wHLi8vM2XmhT1u6yG3z1p1Zr0mT9a"
