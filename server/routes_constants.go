package server

// Route path constants
const (
	RouteHealthcheck = "/healthcheck"

	// Users & sessions
	RouteUsers           = "/api/users"
	RouteSessions        = "/api/sessions"
	RouteSessionsRefresh = "/api/sessions/refresh"
	RouteMe              = "/api/me"

	RouteAPIPrefix = "/api/"

	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteMetrics       = "/metrics"
)
