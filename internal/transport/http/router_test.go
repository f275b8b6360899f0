package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"namereg/internal/platform/metrics"
	ratelimitmw "namereg/internal/ratelimit/middleware"
	"namereg/internal/ratelimit/store/bucket"
	"namereg/pkg/domain"
	"namereg/pkg/platform/audit"
	authmw "namereg/pkg/platform/middleware/auth"
	"namereg/pkg/requestcontext"
	"namereg/pkg/testutil"
)

var alice = domain.MustParseAccount("0x00000000000000000000000000000000000000a1")

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*authmw.JWTClaims, error) {
	if token != "good" {
		return nil, errors.New("invalid token")
	}
	return &authmw.JWTClaims{Account: alice, JTI: "jti-1"}, nil
}

type echoComponent struct{}

func (echoComponent) RegisterReads(r chi.Router) {
	r.Get("/v1/echo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (echoComponent) Register(r chi.Router) {
	r.Post("/v1/echo", func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.Account(r.Context()) != alice {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
}

type stubEvents struct {
	events []audit.Event
	limit  int
}

func (s *stubEvents) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.limit = limit
	return s.events, nil
}

type RouterSuite struct {
	suite.Suite
	events *stubEvents
	health error
	router http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	s.health = nil
	s.events = &stubEvents{events: []audit.Event{{
		ID:        uuid.New(),
		Action:    string(audit.EventNameRegistered),
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Name:      "alice",
		Account:   alice,
		Amount:    460,
	}}}
	s.router = NewRouter(Dependencies{
		Logger:         logger,
		Validator:      stubValidator{},
		RequestTimeout: time.Second,
		Components:     []Component{echoComponent{}},
		Events:         s.events,
		RateLimit:      ratelimitmw.New(bucket.NewInMemoryBucketStore(), 2, time.Minute, logger),
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Health: map[string]HealthCheck{
			"store": func(context.Context) error { return s.health },
		},
	})
}

func (s *RouterSuite) authed(method, path string) *http.Request {
	req := testutil.NewRequest(s.T(), method, path)
	req.Header.Set("Authorization", "Bearer good")
	return req
}

func (s *RouterSuite) TestReadsArePublic() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/echo"))
	testutil.AssertStatusOK(s.T(), rr)
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestWritesRequireAuth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/v1/echo"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")

	rr = testutil.DoRequest(s.router, s.authed(http.MethodPost, "/v1/echo"))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	s.Equal("2", rr.Header().Get("X-RateLimit-Limit"))
}

func (s *RouterSuite) TestWritesAreRateLimited() {
	for range 2 {
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, s.authed(http.MethodPost, "/v1/echo")), http.StatusCreated)
	}
	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/v1/echo"))
	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
}

func (s *RouterSuite) TestEvents() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/events?limit=10"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal(10, s.events.limit)

	resp := testutil.UnmarshalResponse[EventsResponse](s.T(), rr)
	s.Require().Len(resp.Events, 1)
	s.Equal("name_registered", resp.Events[0].Action)
	s.Equal("registry", resp.Events[0].Category)
	s.Equal(alice.String(), resp.Events[0].Account)
	s.Empty(resp.Events[0].Counterparty)
	s.Equal(uint64(460), resp.Events[0].Amount)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/events?limit=0"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *RouterSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	s.health = errors.New("connection refused")
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	testutil.AssertJSONContains(s.T(), rr, "status", "degraded")
}

func (s *RouterSuite) TestMetricsEndpoint() {
	testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/echo"))
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "namereg_http_request_duration_seconds")
}
