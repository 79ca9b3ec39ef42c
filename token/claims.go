package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-task-server/token/keys"
	"github.com/jrsteele09/go-task-server/users"
)

// Base carries the registered claims plus the token_use marker that keeps an
// access token from being accepted as a refresh token and vice versa.
type Base struct {
	jwt.RegisteredClaims
	TokenUse keys.Role `json:"token_use"`
}

func (b *Base) base() *Base { return b }

// Claims is implemented by every claim set the codec can sign.
type Claims interface {
	jwt.Claims
	base() *Base
}

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	Base
	User      users.Snapshot `json:"user"`       // Identity snapshot taken at signing time
	SessionID string         `json:"session_id"` // Session the token was issued for
}

// RefreshClaims is the payload of a long-lived refresh token. It carries no
// identity; the user is resolved again from the session on refresh.
type RefreshClaims struct {
	Base
	SessionID string `json:"session_id"`
}

var (
	_ Claims = (*AccessClaims)(nil)
	_ Claims = (*RefreshClaims)(nil)
)
