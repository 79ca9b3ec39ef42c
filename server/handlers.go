package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-task-server/auth"
	"github.com/jrsteele09/go-task-server/sessions"
	"github.com/jrsteele09/go-task-server/users"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

func (s *Server) HealthcheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type registerUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterUserHandler creates a user with the "user" role.
func (s *Server) RegisterUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerUserRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
			return
		}

		email := users.NormalizeEmail(req.Email)
		if email == "" || !strings.Contains(email, "@") {
			writeJSONError(w, "invalid_request", "a valid email is required", http.StatusBadRequest)
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			log.Err(err).Msg("Failed to hash password")
			writeJSONError(w, "internal_error", "could not create user", http.StatusInternalServerError)
			return
		}

		user := &users.User{
			Email:        email,
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: hash,
			Roles:        []users.RoleType{users.RoleUser},
			DateJoined:   time.Now().UTC(),
		}
		if err := s.repos.Users.Upsert(user); err != nil {
			if errors.Is(err, users.ErrEmailExists) {
				writeJSONError(w, "conflict", "email already registered", http.StatusConflict)
				return
			}
			log.Err(err).Msg("Failed to store user")
			writeJSONError(w, "internal_error", "could not create user", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

type createSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateSessionHandler is the login endpoint. Valid credentials open a session
// and return its token pair, also set as HttpOnly cookies.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
			return
		}

		userID, err := s.credentials.Verify(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeJSONError(w, "invalid_credentials", "invalid email or password", http.StatusUnauthorized)
				return
			}
			log.Err(err).Msg("Failed to verify credentials")
			writeJSONError(w, "internal_error", "login failed", http.StatusInternalServerError)
			return
		}

		pair, err := s.auth.Login(r.Context(), userID, r.UserAgent())
		if err != nil {
			writeLifecycleError(w, err)
			return
		}

		s.setTokenCookie(w, r, accessTokenCookie, pair.AccessToken, "/", s.config.GetAccessTokenTTL())
		s.setTokenCookie(w, r, refreshTokenCookie, pair.RefreshToken, RouteSessions, s.config.GetRefreshTokenTTL())
		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshSessionHandler exchanges a refresh token for a new access token.
func (s *Server) RefreshSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := refreshTokenFromRequest(r)
		if raw == "" {
			writeForbidden(w)
			return
		}

		accessToken, err := s.auth.Refresh(r.Context(), raw)
		if err != nil {
			writeLifecycleError(w, err)
			return
		}

		w.Header().Set(accessTokenHeader, accessToken)
		s.setTokenCookie(w, r, accessTokenCookie, accessToken, "/", s.config.GetAccessTokenTTL())
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
	}
}

type sessionsResponse struct {
	Sessions []*sessions.Session `json:"sessions"`
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeForbidden(w)
			return
		}

		list, err := s.auth.Sessions(r.Context(), identity.User.ID)
		if err != nil {
			log.Err(err).Msg("Failed to list sessions")
			writeJSONError(w, "internal_error", "could not list sessions", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*sessions.Session{}
		}
		writeJSON(w, http.StatusOK, sessionsResponse{Sessions: list})
	}
}

// DeleteSessionHandler logs out the caller's session, or every session of the
// caller with ?scope=all.
func (s *Server) DeleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeForbidden(w)
			return
		}

		scope, err := auth.ParseLogoutScope(r.URL.Query().Get("scope"))
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.auth.Logout(r.Context(), identity.SessionID, scope); err != nil {
			writeLifecycleError(w, err)
			return
		}

		s.clearTokenCookie(w, r, accessTokenCookie, "/")
		s.clearTokenCookie(w, r, refreshTokenCookie, RouteSessions)
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken":  nil,
			"refreshToken": nil,
			"scope":        scope.String(),
		})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeForbidden(w)
			return
		}
		writeJSON(w, http.StatusOK, identity)
	}
}

// JWKSHandler publishes the access token public key.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.codec.JWKS()
		if err != nil {
			log.Err(err).Msg("Failed to build JWKS")
			writeJSONError(w, "internal_error", "could not build key set", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(jwks)
	}
}

// writeLifecycleError maps the lifecycle taxonomy to 403 and anything else to 500.
func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenRejected),
		errors.Is(err, auth.ErrSessionGone),
		errors.Is(err, auth.ErrSessionRevoked),
		errors.Is(err, auth.ErrIdentityGone):
		writeForbidden(w)
	default:
		log.Err(err).Msg("Session lifecycle failure")
		writeJSONError(w, "internal_error", "internal server error", http.StatusInternalServerError)
	}
}
