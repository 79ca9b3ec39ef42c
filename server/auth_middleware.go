package server

import (
	"net/http"
	"strings"
)

// RequireUser verifies the access token on the request and puts the caller's
// auth.Identity on the context. The token comes from the Authorization header,
// or the accessToken cookie when the header is absent. Any failure is a 403.
func (s *Server) RequireUser() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := accessTokenFromRequest(r)
			if raw == "" {
				writeForbidden(w)
				return
			}

			ctx, err := s.guard.Authenticate(r.Context(), raw)
			if err != nil {
				writeForbidden(w)
				return
			}

			next(w, r.WithContext(ctx))
		}
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
