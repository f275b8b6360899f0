// Package middleware enforces per-account sliding-window limits on HTTP routes.
//
// Checks go to the primary bucket store. After repeated primary failures the
// circuit opens and checks are served by an in-memory fallback, with
// X-RateLimit-Status: degraded set on responses. Without a fallback a failed
// check lets the request through.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"namereg/internal/ratelimit/metrics"
	"namereg/internal/ratelimit/models"
	"namereg/pkg/platform/circuit"
	"namereg/pkg/platform/httputil"
	"namereg/pkg/requestcontext"
)

// ClassWrite is the route class of state-changing endpoints.
const ClassWrite = "write"

// Limiter is a bucket store.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback serves checks from fallback while the primary is failing.
func WithFallback(fallback Limiter) Option {
	return func(m *Middleware) {
		m.fallback = fallback
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.breaker = b
	}
}

func New(primary Limiter, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		limit:   limit,
		window:  window,
		logger:  logger,
		breaker: circuit.New("ratelimit"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimitAccount limits authenticated callers per account within class.
// Anonymous requests pass; authentication is enforced elsewhere.
func (m *Middleware) RateLimitAccount(class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			account := requestcontext.Account(ctx)
			if account.IsZero() {
				next.ServeHTTP(w, r)
				return
			}

			result, degraded := m.check(ctx, models.AccountKey(account, class))
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			if result == nil {
				next.ServeHTTP(w, r)
				return
			}
			if m.metrics != nil {
				m.metrics.IncDecision(class, result.Allowed)
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.InfoContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"account", account.String(),
					"class", class,
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// check returns nil when no store could answer.
func (m *Middleware) check(ctx context.Context, key string) (*models.Result, bool) {
	result, err := m.primary.Allow(ctx, key, m.limit, m.window)
	if err != nil {
		if m.metrics != nil {
			m.metrics.IncBackendError()
		}
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store failing, switching to in-memory fallback", "error", err)
			m.setDegraded(true)
		}
		if !useFallback || m.fallback == nil {
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err)
			return nil, false
		}
		return m.fromFallback(ctx, key)
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered")
		m.setDegraded(false)
	}
	if !usePrimary && m.fallback != nil {
		return m.fromFallback(ctx, key)
	}
	return result, false
}

func (m *Middleware) fromFallback(ctx context.Context, key string) (*models.Result, bool) {
	result, err := m.fallback.Allow(ctx, key, m.limit, m.window)
	if err != nil {
		m.logger.ErrorContext(ctx, "fallback rate limit check failed", "error", err)
		return nil, true
	}
	return result, true
}

func (m *Middleware) setDegraded(degraded bool) {
	if m.metrics != nil {
		m.metrics.SetDegraded(degraded)
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "too_many_requests",
		Message:    "Too many requests for this account. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
