package testutil

import (
	"net/http"
	"time"

	"namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// WithAccount authenticates req as account, as RequireAuth would.
// A malformed account leaves the request anonymous.
func WithAccount(req *http.Request, account string) *http.Request {
	parsed, err := domain.ParseAccount(account)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithAccount(req.Context(), parsed))
}

// WithNow pins the request time seen by handlers and services.
func WithNow(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
