package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"namereg/internal/registrar/models"
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/httputil"
	"namereg/pkg/requestcontext"
)

// Service is the registration engine surface exposed over HTTP.
type Service interface {
	ComputeCommitment(name string, claimant domain.Account, secret domain.Secret) domain.CommitmentHash
	SubmitClaim(ctx context.Context, hash domain.CommitmentHash, caller domain.Account, now time.Time) error
	GetClaim(ctx context.Context, hash domain.CommitmentHash) (*models.Claim, error)
	Register(ctx context.Context, name string, caller domain.Account, secret domain.Secret, now time.Time) (time.Time, error)
	Renew(ctx context.Context, name string, caller domain.Account, now time.Time) (time.Time, error)
	Unstake(ctx context.Context, name string, caller domain.Account, now time.Time) (uint64, error)
	Status(ctx context.Context, name string, now time.Time) (*models.NameStatus, error)
	StakeOf(ctx context.Context, staker domain.Account, name string) (uint64, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterReads mounts the unauthenticated endpoints.
func (h *Handler) RegisterReads(r chi.Router) {
	r.Post("/v1/commitments", h.HandleComputeCommitment)
	r.Get("/v1/claims/{hash}", h.HandleGetClaim)
	r.Get("/v1/names/{name}", h.HandleStatus)
	r.Get("/v1/names/{name}/stakes/{account}", h.HandleStake)
}

// Register mounts the state-changing endpoints; the router must authenticate them.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/claims", h.HandleSubmitClaim)
	r.Post("/v1/names/{name}/register", h.HandleRegister)
	r.Post("/v1/names/{name}/renew", h.HandleRenew)
	r.Post("/v1/names/{name}/unstake", h.HandleUnstake)
}

func (h *Handler) HandleComputeCommitment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CommitmentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	hash := h.service.ComputeCommitment(req.Name, req.claimant, req.secret)
	httputil.WriteJSON(w, http.StatusOK, CommitmentResponse{Commitment: hash})
}

func (h *Handler) HandleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	now := requestcontext.Now(ctx)
	if err := h.service.SubmitClaim(ctx, req.commitment, caller, now); err != nil {
		h.logFailure(ctx, "claim submission failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.Claim{Hash: req.commitment, Claimant: caller, CreatedAt: now})
}

func (h *Handler) HandleGetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash, err := domain.ParseCommitmentHash(chi.URLParam(r, "hash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.service.GetClaim(ctx, hash)
	if err != nil {
		h.logFailure(ctx, "claim lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	expiration, err := h.service.Register(ctx, name, caller, req.secret, requestcontext.Now(ctx))
	if err != nil {
		h.logFailure(ctx, "registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	stake, err := h.service.StakeOf(ctx, caller, name)
	if err != nil {
		h.logFailure(ctx, "stake lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, RegistrationResponse{Name: name, Owner: caller, Expiration: expiration, Stake: stake})
}

func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	expiration, err := h.service.Renew(ctx, name, caller, requestcontext.Now(ctx))
	if err != nil {
		h.logFailure(ctx, "renewal failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RegistrationResponse{Name: name, Owner: caller, Expiration: expiration})
}

func (h *Handler) HandleUnstake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	amount, err := h.service.Unstake(ctx, name, caller, requestcontext.Now(ctx))
	if err != nil {
		h.logFailure(ctx, "unstake failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.Stake{Staker: caller, Name: name, Amount: amount})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	status, err := h.service.Status(ctx, name, requestcontext.Now(ctx))
	if err != nil {
		h.logFailure(ctx, "status lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleStake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	staker, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := h.service.StakeOf(ctx, staker, name)
	if err != nil {
		h.logFailure(ctx, "stake lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.Stake{Staker: staker, Name: name, Amount: amount})
}

// nameParam returns the unescaped {name} path segment. chi matches against
// RawPath when it is set and against the already decoded Path otherwise, so
// only the former is unescaped here.
func nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	var err error
	if r.URL.RawPath != "" {
		name, err = url.PathUnescape(name)
	}
	if err != nil || name == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid name path segment"))
		return "", false
	}
	return name, true
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
	level := slog.LevelInfo
	if dErrors.Is(err, dErrors.CodeInternal) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"caller", requestcontext.Account(ctx).String(),
		"error", err,
	)
}
