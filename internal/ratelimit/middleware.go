package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ledgertrace/pkg/platform/httputil"
	"ledgertrace/pkg/requestcontext"
)

// Middleware applies per-IP budgets to route classes. Store failures fail
// open: a broken limiter backend must not take the API down with it.
type Middleware struct {
	store    Store
	window   time.Duration
	logger   *slog.Logger
	disabled bool
}

// MiddlewareOption customizes the rate limit middleware.
type MiddlewareOption func(*Middleware)

// WithDisabled turns the limiter off entirely, for tests and demo runs.
func WithDisabled(disabled bool) MiddlewareOption {
	return func(m *Middleware) { m.disabled = disabled }
}

// NewMiddleware builds the middleware around a store and window.
func NewMiddleware(store Store, window time.Duration, logger *slog.Logger, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{store: store, window: window, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Limit returns a handler wrapper enforcing the given budget for a route
// class. The class keeps budgets independent between endpoints sharing an
// IP.
func (m *Middleware) Limit(class string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := "ratelimit:" + class + ":" + requestcontext.ClientIP(ctx)

			result, err := m.store.Allow(ctx, key, limit, m.window)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"class", class,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests for this operation. Please try again later.",
					"retry_after": result.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
