package auth

import (
	"errors"
	"fmt"
)

// Refresh and logout failures. The HTTP layer maps all of them to the same
// forbidden response; the specific reason only goes to the logs.
var (
	ErrTokenRejected  = errors.New("token rejected")
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenRejected)
	ErrSessionGone    = errors.New("session not found")
	ErrSessionRevoked = errors.New("session revoked")
	ErrIdentityGone   = errors.New("identity no longer exists")
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
