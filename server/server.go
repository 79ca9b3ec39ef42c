package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-task-server/auth"
	"github.com/jrsteele09/go-task-server/internal/config"
	"github.com/jrsteele09/go-task-server/internal/metrics"
	"github.com/jrsteele09/go-task-server/sessions"
	"github.com/jrsteele09/go-task-server/token"
	"github.com/jrsteele09/go-task-server/users"
	"github.com/rs/zerolog/log"
)

// Repos are the stores the server is built on.
type Repos struct {
	Sessions sessions.Repo
	Users    users.UserRepo
}

type Server struct {
	env         string // Environment (e.g. "DEV", "PROD")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	repos       Repos
	codec       *token.Codec
	auth        *auth.Service
	guard       *auth.Guard
	credentials *auth.Credentials
	metrics     *metrics.Metrics
	limiter     *clientLimiter
}

// New wires the lifecycle service and guard around repos and codec, seeds the
// configured user and registers every route. m may be nil.
func New(c config.Config, repos Repos, codec *token.Codec, m *metrics.Metrics) (*Server, error) {
	if repos.Sessions == nil || repos.Users == nil {
		return nil, errors.New("[Server New] sessions and users repos are required")
	}

	authService, err := auth.NewService(repos.Sessions, users.NewResolver(repos.Users), codec,
		auth.WithTokenTTLs(c.GetAccessTokenTTL(), c.GetRefreshTokenTTL()),
		auth.WithMetrics(m),
		auth.WithLogger(log.Logger.With().Str("component", "auth").Logger()),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create auth service: %w", err)
	}

	s := &Server{
		env:         c.GetEnv(),
		mux:         http.NewServeMux(),
		config:      c,
		repos:       repos,
		codec:       codec,
		auth:        authService,
		credentials: auth.NewCredentials(repos.Users),
		metrics:     m,
		guard: auth.NewGuard(codec,
			auth.WithGuardMetrics(m),
			auth.WithGuardLogger(log.Logger.With().Str("component", "guard").Logger()),
		),
	}
	if c.GetEnableRateLimiting() {
		s.limiter = newClientLimiter(c.GetRateLimitRPS(), c.GetRateLimitBurst())
	}

	if err := s.SeedUser(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] failed to seed user: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msg(fmt.Sprintf("[%-19s] %s", colourMethod(method), path))
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
