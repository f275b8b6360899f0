package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/ownership/models"
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/httputil"
	"namereg/pkg/requestcontext"
)

// Service is the ownership ledger administration surface.
type Service interface {
	AddManager(ctx context.Context, caller, account domain.Account) error
	RemoveManager(ctx context.Context, caller, account domain.Account) error
	ListManagers(ctx context.Context) ([]models.Manager, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts manager administration; the router must authenticate it.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/admin/managers", h.HandleListManagers)
	r.Post("/v1/admin/managers", h.HandleAddManager)
	r.Delete("/v1/admin/managers/{account}", h.HandleRemoveManager)
}

type ManagerRequest struct {
	Account string `json:"account"`

	account domain.Account
}

func (r *ManagerRequest) Validate() error {
	if r.Account == "" {
		return dErrors.New(dErrors.CodeValidation, "account is required")
	}
	account, err := domain.ParseAccount(r.Account)
	if err != nil {
		return err
	}
	r.account = account
	return nil
}

type ManagersResponse struct {
	Managers []models.Manager `json:"managers"`
}

func (h *Handler) HandleListManagers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	managers, err := h.service.ListManagers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list managers failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if managers == nil {
		managers = []models.Manager{}
	}
	httputil.WriteJSON(w, http.StatusOK, ManagersResponse{Managers: managers})
}

func (h *Handler) HandleAddManager(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Account(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[ManagerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.AddManager(ctx, caller, req.account); err != nil {
		h.logger.WarnContext(ctx, "add manager failed",
			"request_id", requestID,
			"caller", caller.String(),
			"account", req.account.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]domain.Account{"account": req.account})
}

func (h *Handler) HandleRemoveManager(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Account(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveManager(ctx, caller, account); err != nil {
		h.logger.WarnContext(ctx, "remove manager failed",
			"request_id", requestID,
			"caller", caller.String(),
			"account", account.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
