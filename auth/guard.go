package auth

import (
	"context"

	"github.com/jrsteele09/go-task-server/internal/metrics"
	"github.com/jrsteele09/go-task-server/token"
	"github.com/jrsteele09/go-task-server/users"
	"github.com/rs/zerolog"
)

// Identity is attached to the context of an authenticated request.
type Identity struct {
	User      users.Snapshot `json:"user"`
	SessionID string         `json:"sessionId"`
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Guard verifies access tokens. It trusts the signature alone and never reads
// the session store, so an access token outlives its revoked session until exp.
type Guard struct {
	codec   *token.Codec
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

type GuardOption func(*Guard)

func WithGuardMetrics(m *metrics.Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = m
	}
}

func WithGuardLogger(logger zerolog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

func NewGuard(codec *token.Codec, options ...GuardOption) *Guard {
	g := &Guard{
		codec:  codec,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Authenticate verifies rawToken as an access token and returns ctx with the
// caller's Identity attached. Expired and invalid tokens both yield
// ErrUnauthenticated.
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (context.Context, error) {
	claims, outcome := g.codec.VerifyAccess(rawToken)
	switch outcome {
	case token.Valid:
		g.metrics.Guard(metrics.OutcomeOK)
		return WithIdentity(ctx, Identity{User: claims.User, SessionID: claims.SessionID}), nil
	case token.Expired:
		g.metrics.Guard(metrics.OutcomeTokenExpired)
	default:
		g.metrics.Guard(metrics.OutcomeTokenRejected)
	}
	g.logger.Debug().Stringer("outcome", outcome).Msg("access token refused")
	return ctx, ErrUnauthenticated
}
