// Package httptransport assembles the public HTTP surface from the component handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namereg/internal/platform/metrics"
	ratelimitmw "namereg/internal/ratelimit/middleware"
	authmw "namereg/pkg/platform/middleware/auth"
	"namereg/pkg/platform/middleware/metadata"
	request "namereg/pkg/platform/middleware/request"
	"namereg/pkg/platform/middleware/requesttime"
)

// Component mounts its routes. Reads are public, writes sit behind authentication.
type Component interface {
	RegisterReads(r chi.Router)
	Register(r chi.Router)
}

// WriteOnly is a component without public reads.
type WriteOnly interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Logger         *slog.Logger
	Validator      authmw.JWTValidator
	RequestTimeout time.Duration

	Components []Component
	Admin      []WriteOnly
	Events     EventLister

	// RateLimit is applied to authenticated routes when set.
	RateLimit *ratelimitmw.Middleware
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Health    map[string]HealthCheck
}

// NewRouter wires all endpoints and the shared middleware chain.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Recovery(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.LatencyMiddleware)
	}

	r.Get("/healthz", healthHandler(d.Health, d.Logger))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(api chi.Router) {
		if d.RequestTimeout > 0 {
			api.Use(request.Timeout(d.RequestTimeout))
		}
		api.Use(request.ContentTypeJSON)

		for _, c := range d.Components {
			c.RegisterReads(api)
		}
		if d.Events != nil {
			api.Get("/v1/events", eventsHandler(d.Events, d.Logger))
		}

		api.Group(func(authed chi.Router) {
			authed.Use(authmw.RequireAuth(d.Validator, d.Logger))
			if d.RateLimit != nil {
				authed.Use(d.RateLimit.RateLimitAccount(ratelimitmw.ClassWrite))
			}
			for _, c := range d.Components {
				c.Register(authed)
			}
			for _, c := range d.Admin {
				c.Register(authed)
			}
		})
	})
	return r
}
