package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-task-server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.Login(metrics.OutcomeOK)
	m.Login(metrics.OutcomeOK)
	m.Refresh(metrics.OutcomeSessionRevoked)
	m.Logout("all", metrics.OutcomeOK)
	m.SessionsRevoked(3)
	m.SessionsRevoked(0)
	m.Guard(metrics.OutcomeTokenExpired)
	m.Request(http.MethodGet, "/api/me", http.StatusOK, 12*time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(),
		"task_server_logins_total",
		"task_server_refreshes_total",
		"task_server_logouts_total",
		"task_server_guard_decisions_total",
		"task_server_http_requests_total",
	)
	require.NoError(t, err)
	require.Equal(t, 5, count)

	body := scrape(t, m)
	require.Contains(t, body, `task_server_logins_total{outcome="ok"} 2`)
	require.Contains(t, body, `task_server_refreshes_total{outcome="session_revoked"} 1`)
	require.Contains(t, body, `task_server_logouts_total{outcome="ok",scope="all"} 1`)
	require.Contains(t, body, `task_server_sessions_revoked_total 3`)
	require.Contains(t, body, `task_server_http_requests_total{method="GET",route="/api/me",status="200"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.Login(metrics.OutcomeOK)
		m.Refresh(metrics.OutcomeOK)
		m.Logout("single", metrics.OutcomeOK)
		m.SessionsRevoked(1)
		m.Guard(metrics.OutcomeOK)
		m.Request(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(b)
}
