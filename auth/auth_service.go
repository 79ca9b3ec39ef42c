package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-task-server/internal/metrics"
	"github.com/jrsteele09/go-task-server/sessions"
	"github.com/jrsteele09/go-task-server/token"
	"github.com/jrsteele09/go-task-server/users"
	"github.com/rs/zerolog"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 365 * 24 * time.Hour
)

// IdentityResolver looks up the current identity of a user. It returns
// users.ErrNotFound when the user no longer exists.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (users.Snapshot, error)
}

// LogoutScope selects how many sessions a logout revokes.
type LogoutScope int

const (
	ScopeSingleSession LogoutScope = iota
	ScopeAllSessionsForUser
)

func (s LogoutScope) String() string {
	if s == ScopeAllSessionsForUser {
		return "all"
	}
	return "single"
}

// ParseLogoutScope accepts "single", "all" or an empty string (single).
func ParseLogoutScope(s string) (LogoutScope, error) {
	switch s {
	case "", "single":
		return ScopeSingleSession, nil
	case "all":
		return ScopeAllSessionsForUser, nil
	default:
		return ScopeSingleSession, fmt.Errorf("unknown logout scope %q", s)
	}
}

// TokenPair is returned by Login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	SessionID    string `json:"sessionId"`
}

// Service owns the session lifecycle: login, refresh and logout. It keeps no
// mutable state of its own; all of it lives in the session store.
type Service struct {
	sessions   sessions.Repo
	identities IdentityResolver
	codec      *token.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

type ServiceOption func(*Service)

func WithTokenTTLs(access, refresh time.Duration) ServiceOption {
	return func(s *Service) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(sessionRepo sessions.Repo, identities IdentityResolver, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if sessionRepo == nil {
		return nil, errors.New("[NewService] sessions repo is required")
	}
	if identities == nil {
		return nil, errors.New("[NewService] identity resolver is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] token codec is required")
	}

	s := &Service{
		sessions:   sessionRepo,
		identities: identities,
		codec:      codec,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login opens a new session for userID and issues its access and refresh tokens.
// The identity is resolved first so a missing user never leaves a session behind.
func (s *Service) Login(ctx context.Context, userID, userAgent string) (*TokenPair, error) {
	user, err := s.resolve(ctx, userID)
	if err != nil {
		s.metrics.Login(outcomeOf(err))
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("login rejected")
		return nil, err
	}

	session, err := s.sessions.Create(ctx, userID, userAgent)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return nil, fmt.Errorf("[Service.Login] create session: %w", err)
	}

	accessToken, err := s.codec.SignAccess(user, session.ID, s.accessTTL)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return nil, fmt.Errorf("[Service.Login] %w", err)
	}
	refreshToken, err := s.codec.SignRefresh(session.ID, s.refreshTTL)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return nil, fmt.Errorf("[Service.Login] %w", err)
	}

	s.metrics.Login(metrics.OutcomeOK)
	s.logger.Info().
		Str("user_id", userID).
		Str("session_id", session.ID).
		Msg("session created")

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
	}, nil
}

// Refresh issues a new access token for the session behind refreshToken. The
// refresh token itself is never rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	accessToken, sessionID, err := s.refresh(ctx, refreshToken)
	s.metrics.Refresh(outcomeOf(err))

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.Str("session_id", sessionID).Msg("access token refresh")

	return accessToken, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, outcome := s.codec.VerifyRefresh(refreshToken)
	switch outcome {
	case token.Valid:
	case token.Expired:
		return "", "", ErrTokenExpired
	default:
		return "", "", ErrTokenRejected
	}

	session, err := s.findSession(ctx, claims.SessionID)
	if err != nil {
		return "", claims.SessionID, err
	}
	if !session.Valid() {
		return "", session.ID, ErrSessionRevoked
	}

	user, err := s.resolve(ctx, session.UserID)
	if err != nil {
		return "", session.ID, err
	}

	accessToken, err := s.codec.SignAccess(user, session.ID, s.accessTTL)
	if err != nil {
		return "", session.ID, fmt.Errorf("[Service.Refresh] %w", err)
	}
	return accessToken, session.ID, nil
}

// Logout revokes the session, or every session of its owner. Logging out an
// already revoked session succeeds.
func (s *Service) Logout(ctx context.Context, sessionID string, scope LogoutScope) error {
	err := s.logout(ctx, sessionID, scope)
	s.metrics.Logout(scope.String(), outcomeOf(err))
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Stringer("scope", scope).Msg("logout failed")
		return err
	}
	return nil
}

func (s *Service) logout(ctx context.Context, sessionID string, scope LogoutScope) error {
	switch scope {
	case ScopeSingleSession:
		err := s.sessions.Invalidate(ctx, sessionID)
		if errors.Is(err, sessions.ErrNotFound) {
			return ErrSessionGone
		}
		if err != nil {
			return fmt.Errorf("[Service.Logout] %w", err)
		}
		s.logger.Info().Str("session_id", sessionID).Msg("session revoked")
		return nil

	case ScopeAllSessionsForUser:
		session, err := s.findSession(ctx, sessionID)
		if err != nil {
			return err
		}
		n, err := s.sessions.InvalidateAllForUser(ctx, session.UserID)
		if err != nil {
			return fmt.Errorf("[Service.Logout] %w", err)
		}
		s.metrics.SessionsRevoked(n)
		s.logger.Info().
			Str("session_id", sessionID).
			Str("user_id", session.UserID).
			Int("revoked", n).
			Msg("all user sessions revoked")
		return nil

	default:
		return fmt.Errorf("[Service.Logout] unknown scope %d", scope)
	}
}

// Sessions lists the user's valid sessions, newest first.
func (s *Service) Sessions(ctx context.Context, userID string) ([]*sessions.Session, error) {
	list, err := s.sessions.ListValidForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("[Service.Sessions] %w", err)
	}
	return list, nil
}

func (s *Service) findSession(ctx context.Context, sessionID string) (*sessions.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, ErrSessionGone
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *Service) resolve(ctx context.Context, userID string) (users.Snapshot, error) {
	user, err := s.identities.Resolve(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return users.Snapshot{}, ErrIdentityGone
	}
	if err != nil {
		return users.Snapshot{}, fmt.Errorf("resolve identity: %w", err)
	}
	return user, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrTokenExpired):
		return metrics.OutcomeTokenExpired
	case errors.Is(err, ErrTokenRejected):
		return metrics.OutcomeTokenRejected
	case errors.Is(err, ErrSessionGone):
		return metrics.OutcomeSessionGone
	case errors.Is(err, ErrSessionRevoked):
		return metrics.OutcomeSessionRevoked
	case errors.Is(err, ErrIdentityGone):
		return metrics.OutcomeIdentityGone
	default:
		return metrics.OutcomeError
	}
}
