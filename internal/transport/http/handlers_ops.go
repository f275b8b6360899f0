package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/audit"
	"namereg/pkg/platform/httputil"
	request "namereg/pkg/platform/middleware/request"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
	healthTimeout      = 2 * time.Second
)

// EventLister reads the most recent lifecycle events, newest first.
type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type EventResponse struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	Category     string    `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	Name         string    `json:"name,omitempty"`
	Account      string    `json:"account,omitempty"`
	Counterparty string    `json:"counterparty,omitempty"`
	Commitment   string    `json:"commitment,omitempty"`
	Amount       uint64    `json:"amount,omitempty"`
	Expiration   time.Time `json:"expiration,omitzero"`
}

type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

func toEventResponse(e audit.Event) EventResponse {
	resp := EventResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		Category:   string(e.Category()),
		Timestamp:  e.Timestamp,
		Name:       e.Name,
		Amount:     e.Amount,
		Expiration: e.Expiration,
	}
	if !e.Account.IsZero() {
		resp.Account = e.Account.String()
	}
	if !e.Counterparty.IsZero() {
		resp.Counterparty = e.Counterparty.String()
	}
	if !e.Commitment.IsZero() {
		resp.Commitment = e.Commitment.String()
	}
	return resp
}

func eventsHandler(events EventLister, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit := defaultEventsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxEventsLimit {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500"))
				return
			}
			limit = n
		}

		list, err := events.ListRecent(ctx, limit)
		if err != nil {
			logger.ErrorContext(ctx, "failed to list events",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
		resp := EventsResponse{Events: make([]EventResponse, 0, len(list))}
		for _, e := range list {
			resp.Events = append(resp.Events, toEventResponse(e))
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": state, "checks": results})
	}
}
