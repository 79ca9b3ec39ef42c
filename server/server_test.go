package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-task-server/internal/config"
	"github.com/jrsteele09/go-task-server/internal/metrics"
	"github.com/jrsteele09/go-task-server/server"
	fakesessionrepo "github.com/jrsteele09/go-task-server/sessions/repofakes"
	"github.com/jrsteele09/go-task-server/token"
	"github.com/jrsteele09/go-task-server/token/keys"
	"github.com/jrsteele09/go-task-server/users"
	fakeuserrepo "github.com/jrsteele09/go-task-server/users/repofake"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

const (
	testEmail     = "u1@example.com"
	testPassword  = "Passw0rdOne"
	testUserAgent = "curl/8"
)

var (
	materialOnce sync.Once
	material     *keys.Material
	materialErr  error
)

func testMaterial(t *testing.T) *keys.Material {
	t.Helper()
	materialOnce.Do(func() {
		material, materialErr = keys.GenerateMaterial(2048)
	})
	require.NoError(t, materialErr)
	return material
}

// testFixture holds all test dependencies
type testFixture struct {
	server   *server.Server
	config   config.Config
	codec    *token.Codec
	userRepo users.UserRepo
	sessions *fakesessionrepo.FakeSessionRepo
	metrics  *metrics.Metrics
	logs     *bytes.Buffer
}

// setupTestFixture builds a server over in-memory stores. env entries override
// the defaults below.
func setupTestFixture(t *testing.T, env map[string]string) *testFixture {
	t.Helper()

	defaults := map[string]string{
		"ENV":                "TEST",
		"RATE_LIMIT_RPS":     "0",
		"SEED_USER_EMAIL":    "",
		"SEED_USER_PASSWORD": "",
		"ALLOWED_ORIGINS":    "http://localhost:3000",
	}
	for k, v := range env {
		defaults[k] = v
	}
	for k, v := range defaults {
		t.Setenv(k, v)
	}

	logs := &bytes.Buffer{}
	previous := log.Logger
	log.Logger = zerolog.New(logs).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = previous })

	cfg := config.NewFromFile(filepath.Join(t.TempDir(), "missing.env"))

	codec, err := token.NewCodec(testMaterial(t), token.WithIssuer(cfg.GetTokenIssuer()))
	require.NoError(t, err)

	ur := fakeuserrepo.NewFakeUserRepo()
	sr := fakesessionrepo.NewFakeSessionRepo()
	m := metrics.New()

	s, err := server.New(cfg, server.Repos{Sessions: sr, Users: ur}, codec, m)
	require.NoError(t, err)

	return &testFixture{
		server:   s,
		config:   cfg,
		codec:    codec,
		userRepo: ur,
		sessions: sr,
		metrics:  m,
		logs:     logs,
	}
}

// restart replaces the server with a fresh one over the same session store and
// a new, empty user store, as a process restart does.
func (f *testFixture) restart(t *testing.T) {
	t.Helper()
	f.userRepo = fakeuserrepo.NewFakeUserRepo()
	s, err := server.New(f.config, server.Repos{Sessions: f.sessions, Users: f.userRepo}, f.codec, f.metrics)
	require.NoError(t, err)
	f.server = s
}

func (f *testFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", testUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) register(t *testing.T, email, password string) {
	t.Helper()
	rec := f.do(t, http.MethodPost, server.RouteUsers, map[string]string{
		"email":    email,
		"password": password,
		"name":     "User One",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	SessionID    string `json:"sessionId"`
}

func (f *testFixture) login(t *testing.T, email, password string) tokenPair {
	t.Helper()
	rec := f.do(t, http.MethodPost, server.RouteSessions, map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair tokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func requireForbidden(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
}

func TestHealthcheck(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(t, http.MethodGet, server.RouteHealthcheck, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRegisterUser(t *testing.T) {
	f := setupTestFixture(t, nil)

	f.register(t, "U1@Example.com ", testPassword)

	user, err := f.userRepo.GetByEmail(testEmail)
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash(testPassword, user.PasswordHash))
	require.Equal(t, []users.RoleType{users.RoleUser}, user.Roles)

	t.Run("DuplicateEmail", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteUsers, map[string]string{
			"email":    testEmail,
			"password": testPassword,
		}, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteUsers, map[string]string{
			"email":    "weak@example.com",
			"password": "short",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteUsers, map[string]string{
			"password": testPassword,
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ResponseHasNoHash", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteUsers, map[string]string{
			"email":    "u3@example.com",
			"password": testPassword,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), "$2a$")
		require.NotContains(t, rec.Body.String(), testPassword)
	})
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)

	pair := f.login(t, testEmail, testPassword)

	session, err := f.sessions.FindByID(t.Context(), pair.SessionID)
	require.NoError(t, err)
	require.True(t, session.Valid())
	require.Equal(t, testUserAgent, session.UserAgent)

	t.Run("SetsCookies", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteSessions, map[string]string{
			"email":    testEmail,
			"password": testPassword,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := map[string]*http.Cookie{}
		for _, c := range rec.Result().Cookies() {
			cookies[c.Name] = c
		}
		require.Contains(t, cookies, "accessToken")
		require.Contains(t, cookies, "refreshToken")
		require.True(t, cookies["refreshToken"].HttpOnly)
		require.Equal(t, server.RouteSessions, cookies["refreshToken"].Path)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteSessions, map[string]string{
			"email":    testEmail,
			"password": "Wr0ngPassword",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteSessions, map[string]string{
			"email":    "nobody@example.com",
			"password": testPassword,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, server.RouteSessions, strings.NewReader("{"))
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMe(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)
	pair := f.login(t, testEmail, testPassword)

	rec := f.do(t, http.MethodGet, server.RouteMe, nil, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, pair.SessionID, body["sessionId"])
	require.Equal(t, testEmail, body["user"].(map[string]any)["email"])

	t.Run("CookieFallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, server.RouteMe, nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: pair.AccessToken})
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("NoToken", func(t *testing.T) {
		requireForbidden(t, f.do(t, http.MethodGet, server.RouteMe, nil, nil))
	})

	t.Run("RefreshTokenIsNotAnAccessToken", func(t *testing.T) {
		requireForbidden(t, f.do(t, http.MethodGet, server.RouteMe, nil, bearer(pair.RefreshToken)))
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		requireForbidden(t, f.do(t, http.MethodGet, server.RouteMe, nil, map[string]string{"Authorization": "Token " + pair.AccessToken}))
		requireForbidden(t, f.do(t, http.MethodGet, server.RouteMe, nil, bearer("not-a-jwt")))
	})
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)
	pair := f.login(t, testEmail, testPassword)

	t.Run("Header", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": pair.RefreshToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		accessToken, _ := decodeBody(t, rec)["accessToken"].(string)
		require.NotEmpty(t, accessToken)
		require.Equal(t, accessToken, rec.Header().Get("X-Access-Token"))

		me := f.do(t, http.MethodGet, server.RouteMe, nil, bearer(accessToken))
		require.Equal(t, http.StatusOK, me.Code)
	})

	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, server.RouteSessionsRefresh, nil)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: pair.RefreshToken})
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Body", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteSessionsRefresh, map[string]string{"refreshToken": pair.RefreshToken}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing", func(t *testing.T) {
		requireForbidden(t, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, nil))
	})

	t.Run("AccessTokenIsRejected", func(t *testing.T) {
		requireForbidden(t, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": pair.AccessToken}))
	})

	t.Run("BlockedUser", func(t *testing.T) {
		other := "u2@example.com"
		f.register(t, other, testPassword)
		otherPair := f.login(t, other, testPassword)

		user, err := f.userRepo.GetByEmail(other)
		require.NoError(t, err)
		require.NoError(t, f.userRepo.SetBlocked(user.ID, true))

		requireForbidden(t, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": otherPair.RefreshToken}))
	})
}

func TestLogout_Single(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)
	pair := f.login(t, testEmail, testPassword)
	second := f.login(t, testEmail, testPassword)

	rec := f.do(t, http.MethodDelete, server.RouteSessions, nil, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The revoked session can no longer refresh; the other one can.
	requireForbidden(t, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": pair.RefreshToken}))
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": second.RefreshToken}).Code)

	// The access token stays usable until it expires.
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, server.RouteMe, nil, bearer(pair.AccessToken)).Code)

	// Logging out again is fine.
	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, server.RouteSessions, nil, bearer(pair.AccessToken)).Code)
}

func TestLogout_All(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)
	f.register(t, "u2@example.com", testPassword)

	first := f.login(t, testEmail, testPassword)
	second := f.login(t, testEmail, testPassword)
	other := f.login(t, "u2@example.com", testPassword)

	rec := f.do(t, http.MethodDelete, server.RouteSessions+"?scope=all", nil, bearer(first.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "all", decodeBody(t, rec)["scope"])

	for _, p := range []tokenPair{first, second} {
		requireForbidden(t, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": p.RefreshToken}))
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": other.RefreshToken}).Code)

	t.Run("UnknownScope", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, server.RouteSessions+"?scope=everything", nil, bearer(other.AccessToken))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListSessions(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)
	first := f.login(t, testEmail, testPassword)
	second := f.login(t, testEmail, testPassword)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, server.RouteSessions, nil, bearer(first.AccessToken)).Code)

	rec := f.do(t, http.MethodGet, server.RouteSessions, nil, bearer(second.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sessions []struct {
			ID        string `json:"id"`
			UserAgent string `json:"user_agent"`
			State     string `json:"state"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sessions, 1)
	require.Equal(t, second.SessionID, body.Sessions[0].ID)
	require.Equal(t, "valid", body.Sessions[0].State)

	requireForbidden(t, f.do(t, http.MethodGet, server.RouteSessions, nil, nil))
}

func TestJWKS(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(t, http.MethodGet, server.RouteWellKnownJWKS, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var jwks keys.JWKS
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.NotContains(t, rec.Body.String(), `"d"`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)
	f.login(t, testEmail, testPassword)

	n, err := testutil.GatherAndCount(f.metrics.Registry(), "task_server_logins_total", "task_server_http_requests_total")
	require.NoError(t, err)
	require.Positive(t, n)

	rec := f.do(t, http.MethodGet, server.RouteMetrics, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `task_server_logins_total{outcome="ok"} 1`)
	require.Contains(t, rec.Body.String(), `route="POST /api/sessions"`)
}

func TestRateLimit(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		"RATE_LIMIT_RPS":   "0.001",
		"RATE_LIMIT_BURST": "2",
	})

	body := map[string]string{"email": testEmail, "password": testPassword}
	for range 2 {
		rec := f.do(t, http.MethodPost, server.RouteSessions, body, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := f.do(t, http.MethodPost, server.RouteSessions, body, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other routes are not throttled.
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, server.RouteHealthcheck, nil, nil).Code)
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t, nil)

	t.Run("PreflightAllowed", func(t *testing.T) {
		rec := f.do(t, http.MethodOptions, server.RouteSessions, nil, map[string]string{
			"Origin":                        "http://localhost:3000",
			"Access-Control-Request-Method": "POST",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Refresh")
	})

	t.Run("PreflightRejected", func(t *testing.T) {
		rec := f.do(t, http.MethodOptions, server.RouteSessions, nil, map[string]string{
			"Origin": "http://evil.example",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("SimpleRequest", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, server.RouteHealthcheck, nil, map[string]string{"Origin": "http://localhost:3000"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSeedUser(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		"SEED_USER_EMAIL":    "admin@example.com",
		"SEED_USER_PASSWORD": "Adm1nPassword",
	})

	user, err := f.userRepo.GetByEmail("admin@example.com")
	require.NoError(t, err)
	require.True(t, user.Snapshot().HasRole(users.RoleAdmin))
	require.NotContains(t, f.logs.String(), "Adm1nPassword")

	pair := f.login(t, "admin@example.com", "Adm1nPassword")
	require.NotEmpty(t, pair.AccessToken)
}

func TestRoutesLoggedAtInfoInDev(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"ENV": "DEV"})

	var listed bool
	for _, line := range strings.Split(strings.TrimSpace(f.logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		msg, _ := entry["message"].(string)
		if strings.HasSuffix(msg, " "+server.RouteSessionsRefresh) {
			require.Equal(t, "info", entry["level"])
			listed = true
		}
	}
	require.True(t, listed, f.logs.String())
}

func TestSeedUser_SessionsSurviveRestart(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		"SEED_USER_EMAIL":    "admin@example.com",
		"SEED_USER_PASSWORD": "Adm1nPassword",
	})
	before, err := f.userRepo.GetByEmail("admin@example.com")
	require.NoError(t, err)
	require.Equal(t, server.SeedUserID("admin@example.com"), before.ID)

	pair := f.login(t, "admin@example.com", "Adm1nPassword")

	f.restart(t)
	after, err := f.userRepo.GetByEmail("admin@example.com")
	require.NoError(t, err)
	require.Equal(t, before.ID, after.ID)

	rec := f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	accessToken, _ := decodeBody(t, rec)["accessToken"].(string)
	me := f.do(t, http.MethodGet, server.RouteMe, nil, bearer(accessToken))
	require.Equal(t, http.StatusOK, me.Code)
}

func TestSeedUserID_IsStable(t *testing.T) {
	require.Equal(t, server.SeedUserID("admin@example.com"), server.SeedUserID(" Admin@Example.com "))
	require.NotEqual(t, server.SeedUserID("admin@example.com"), server.SeedUserID("other@example.com"))
}

func TestSeedUser_WeakPassword(t *testing.T) {
	t.Setenv("SEED_USER_EMAIL", "admin@example.com")
	t.Setenv("SEED_USER_PASSWORD", "weak")
	t.Setenv("RATE_LIMIT_RPS", "0")

	cfg := config.NewFromFile(filepath.Join(t.TempDir(), "missing.env"))
	codec, err := token.NewCodec(testMaterial(t))
	require.NoError(t, err)

	_, err = server.New(cfg, server.Repos{
		Sessions: fakesessionrepo.NewFakeSessionRepo(),
		Users:    fakeuserrepo.NewFakeUserRepo(),
	}, codec, nil)
	require.Error(t, err)
}

func TestNew_RequiresRepos(t *testing.T) {
	cfg := config.NewFromFile(filepath.Join(t.TempDir(), "missing.env"))
	codec, err := token.NewCodec(testMaterial(t))
	require.NoError(t, err)

	_, err = server.New(cfg, server.Repos{}, codec, nil)
	require.Error(t, err)
}

func TestRequestLogsNeverContainTokens(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)
	pair := f.login(t, testEmail, testPassword)

	f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": pair.RefreshToken})
	f.do(t, http.MethodGet, server.RouteMe, nil, bearer(pair.AccessToken))
	f.do(t, http.MethodDelete, server.RouteSessions, nil, bearer(pair.AccessToken))

	logs := f.logs.String()
	require.Contains(t, logs, `"request_id"`)
	require.NotContains(t, logs, pair.AccessToken)
	require.NotContains(t, logs, pair.RefreshToken)
	require.NotContains(t, logs, testPassword)
}

func TestScenario_LoginRefreshLogout(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.register(t, testEmail, testPassword)

	pair := f.login(t, testEmail, testPassword)

	refreshed := f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": pair.RefreshToken})
	require.Equal(t, http.StatusOK, refreshed.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, server.RouteSessions, nil, bearer(pair.AccessToken)).Code)

	requireForbidden(t, f.do(t, http.MethodPost, server.RouteSessionsRefresh, nil, map[string]string{"X-Refresh": pair.RefreshToken}))

	// The access token issued at login still passes the guard.
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, server.RouteMe, nil, bearer(pair.AccessToken)).Code)
}

func TestCors_WildcardNeverAllowsCredentials(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"ALLOWED_ORIGINS": "*"})

	rec := f.do(t, http.MethodGet, server.RouteHealthcheck, nil, map[string]string{"Origin": "http://anywhere.example"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
