package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealthcheck, ChainMiddleware(s.HealthcheckHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("POST "+RouteUsers, ChainMiddleware(s.RegisterUserHandler(), s.APIMiddleware()...))

	// Login and refresh are the endpoints worth throttling per client.
	s.RegisterRouteHandler("POST "+RouteSessions, ChainMiddleware(s.CreateSessionHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteSessionsRefresh, ChainMiddleware(s.RefreshSessionHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))

	s.RegisterRouteHandler("GET "+RouteSessions, ChainMiddleware(s.ListSessionsHandler(), s.APIMiddleware(s.RequireUser())...))
	s.RegisterRouteHandler("DELETE "+RouteSessions, ChainMiddleware(s.DeleteSessionHandler(), s.APIMiddleware(s.RequireUser())...))
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireUser())...))

	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())

	// CORS preflight; CorsMiddleware answers before the handler runs.
	s.RegisterRouteHandler("OPTIONS "+RouteAPIPrefix, ChainMiddleware(http.NotFound, s.APIMiddleware()...))
}
