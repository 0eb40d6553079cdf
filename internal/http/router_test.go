package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgertrace/internal/auth"
	"ledgertrace/internal/platform/config"
	"ledgertrace/internal/ratelimit"
	reporthandler "ledgertrace/internal/report/handler"
	"ledgertrace/internal/report/store"
	"ledgertrace/pkg/testutil"
)

type stubRegistrar struct {
	route string
}

func (s stubRegistrar) Register(r chi.Router) {
	r.Post(s.route, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type stubChecker struct {
	err error
}

func (s stubChecker) Health(context.Context) error { return s.err }

func testDeps() Deps {
	cfg := config.Config{}
	cfg.RateLimit = config.RateLimit{
		Window:          time.Minute,
		AnalyzePerMin:   1,
		OwnershipPerMin: 1,
		ExportPerMin:    1,
		DefaultPerMin:   10,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Deps{
		Cfg:      cfg,
		Logger:   logger,
		Limiter:  ratelimit.NewMiddleware(ratelimit.NewMemoryStore(), time.Minute, logger),
		Trace:    stubRegistrar{route: "/ownership/trace"},
		Analyzer: stubRegistrar{route: "/analyze"},
		Export:   stubRegistrar{route: "/export"},
	}
}

func TestRouterHealth(t *testing.T) {
	t.Run("healthy without checks", func(t *testing.T) {
		router := NewRouter(testDeps())
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "healthy")
	})

	t.Run("degraded when a dependency fails", func(t *testing.T) {
		deps := testDeps()
		deps.Checks = map[string]HealthChecker{
			"redis":    stubChecker{err: errors.New("connection refused")},
			"postgres": stubChecker{},
		}
		router := NewRouter(deps)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "degraded")
		testutil.AssertJSONContains(t, rr, "redis", "unhealthy")
		testutil.AssertJSONContains(t, rr, "postgres", "healthy")
	})
}

func TestRouterRoot(t *testing.T) {
	router := NewRouter(testDeps())
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "service", "ledgertrace")
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := NewRouter(testDeps())
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}

func TestRouterRateLimits(t *testing.T) {
	router := NewRouter(testDeps())

	first := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/analyze", map[string]string{"name": "Acme LLC"}))
	testutil.AssertStatusOK(t, first)

	second := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/analyze", map[string]string{"name": "Acme LLC"}))
	testutil.AssertStatus(t, second, http.StatusTooManyRequests)
	assert.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))

	// Budgets are per route class; the ownership route still has quota.
	trace := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/ownership/trace", map[string]string{"entity_name": "Acme LLC"}))
	testutil.AssertStatusOK(t, trace)
}

func TestRouterRateLimitsSurviveNewConnections(t *testing.T) {
	router := NewRouter(testDeps())

	// A fresh TCP connection means a fresh ephemeral port; the budget is
	// keyed by address, so the second request must still be rejected.
	first := testutil.NewJSONRequest(t, http.MethodPost, "/analyze", map[string]string{"name": "Acme LLC"})
	first.RemoteAddr = "203.0.113.7:50001"
	testutil.AssertStatusOK(t, testutil.DoRequest(router, first))

	second := testutil.NewJSONRequest(t, http.MethodPost, "/analyze", map[string]string{"name": "Acme LLC"})
	second.RemoteAddr = "203.0.113.7:50002"
	testutil.AssertRateLimited(t, testutil.DoRequest(router, second))
}

func TestRouterAdminAuth(t *testing.T) {
	tokens := auth.NewTokenService("test-signing-key")
	archive := store.NewMemory()

	deps := testDeps()
	deps.Auth = tokens
	deps.Reports = reporthandler.New(archive, deps.Logger)
	router := NewRouter(deps)

	t.Run("missing token is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/reports"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		testutil.AssertErrorCode(t, rr, "unauthorized")
	})

	t.Run("valid token reaches the archive", func(t *testing.T) {
		token, err := tokens.GenerateToken("ops", "admin", time.Hour)
		require.NoError(t, err)

		req := testutil.NewRequest(t, http.MethodGet, "/admin/reports")
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONHasKey(t, rr, "reports")
	})
}

func TestRouterAdminHiddenWithoutAuth(t *testing.T) {
	deps := testDeps()
	deps.Reports = reporthandler.New(store.NewMemory(), deps.Logger)
	router := NewRouter(deps)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/reports"))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
