package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/httputil"
	"namereg/pkg/requestcontext"
)

// Service is the collateral ledger surface exposed over HTTP.
type Service interface {
	Mint(ctx context.Context, caller, to domain.Account, amount uint64) error
	Approve(ctx context.Context, owner, spender domain.Account, amount uint64) error
	Transfer(ctx context.Context, from, to domain.Account, amount uint64) error
	BalanceOf(ctx context.Context, account domain.Account) (uint64, error)
	Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error)
}

// Handler wires collateral endpoints to the ledger.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterReads mounts the unauthenticated read endpoints.
func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/v1/accounts/{account}/balance", h.HandleBalance)
	r.Get("/v1/accounts/{account}/allowances/{spender}", h.HandleAllowance)
}

// Register mounts the state-changing endpoints; the router must authenticate them.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/collateral/approve", h.HandleApprove)
	r.Post("/v1/collateral/transfer", h.HandleTransfer)
	r.Post("/v1/collateral/mint", h.HandleMint)
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.BalanceOf(ctx, account)
	if err != nil {
		h.logFailure(ctx, "balance lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: balance})
}

func (h *Handler) HandleAllowance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	spender, err := domain.ParseAccount(chi.URLParam(r, "spender"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := h.service.Allowance(ctx, owner, spender)
	if err != nil {
		h.logFailure(ctx, "allowance lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AllowanceResponse{Owner: owner, Spender: spender, Amount: amount})
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApproveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.Approve(ctx, caller, req.spender, req.Amount); err != nil {
		h.logFailure(ctx, "approve failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AllowanceResponse{Owner: caller, Spender: req.spender, Amount: req.Amount})
}

func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.Transfer(ctx, caller, req.to, req.Amount); err != nil {
		h.logFailure(ctx, "transfer failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MovementResponse{From: caller, To: req.to, Amount: req.Amount})
}

func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.Mint(ctx, caller, req.to, req.Amount); err != nil {
		h.logFailure(ctx, "mint failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, MovementResponse{From: domain.ZeroAccount, To: req.to, Amount: req.Amount})
}

func (h *Handler) requireCaller(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	caller := requestcontext.Account(r.Context())
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.ZeroAccount, false
	}
	return caller, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.Is(err, dErrors.CodeInternal) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"caller", requestcontext.Account(ctx).String(),
		"error", err,
	)
}
