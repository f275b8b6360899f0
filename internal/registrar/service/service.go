// Package service implements the registration engine: commit-reveal claims,
// staked registration, renewal and stake release over the collateral and
// ownership ledgers.
//
// Every mutation runs in one transaction that spans the engine store and both
// ledgers, so a failure at any step leaves no partial state behind.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"namereg/internal/registrar/metrics"
	"namereg/internal/registrar/models"
	"namereg/internal/registrar/ports"
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	audit "namereg/pkg/platform/audit"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/platform/tx"
	"namereg/pkg/requestcontext"
)

const tracerName = "namereg/internal/registrar"

type Store interface {
	Claim(ctx context.Context, hash domain.CommitmentHash) (*models.Claim, error)
	PutClaim(ctx context.Context, claim models.Claim) error
	Expiration(ctx context.Context, name string) (time.Time, error)
	SetExpiration(ctx context.Context, name string, expiration time.Time) error
	Stake(ctx context.Context, staker domain.Account, name string) (uint64, error)
	SetStake(ctx context.Context, staker domain.Account, name string, amount uint64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	tx             tx.Manager
	collateral     ports.CollateralLedger
	ownership      ports.OwnershipLedger
	custody        domain.Account
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs the engine. custody is the engine's own account: it holds
// stakes, spends callers' collateral allowances and must be a manager on the
// ownership ledger.
func New(store Store, txm tx.Manager, collateral ports.CollateralLedger, ownership ports.OwnershipLedger, custody domain.Account, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("registrar store is required")
	}
	if txm == nil {
		return nil, errors.New("transaction manager is required")
	}
	if collateral == nil {
		return nil, errors.New("collateral ledger is required")
	}
	if ownership == nil {
		return nil, errors.New("ownership ledger is required")
	}
	if custody.IsZero() {
		return nil, errors.New("custody account must not be the zero account")
	}
	s := &Service{
		store:      store,
		tx:         txm,
		collateral: collateral,
		ownership:  ownership,
		custody:    custody,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Custody returns the account that holds stakes.
func (s *Service) Custody() domain.Account {
	return s.custody
}

// ComputeCommitment hashes a (name, claimant, secret) triple for SubmitClaim.
func (s *Service) ComputeCommitment(name string, claimant domain.Account, secret domain.Secret) domain.CommitmentHash {
	return models.ComputeCommitment(name, claimant, secret)
}

// SubmitClaim records a hidden commitment for caller. A live claim on the same
// hash blocks resubmission until it is more than ClaimLifetime old.
func (s *Service) SubmitClaim(ctx context.Context, hash domain.CommitmentHash, caller domain.Account, now time.Time) (err error) {
	ctx, done := s.begin(ctx, "submit_claim", attribute.String("registrar.commitment", hash.String()), attribute.String("registrar.caller", caller.String()))
	defer func() { done(err) }()

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.Claim(ctx, hash)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim")
		case !models.ClaimReplaceable(existing.CreatedAt, now):
			return dErrors.New(dErrors.CodeClaimConflict, "commitment already claimed")
		}

		claim := models.Claim{Hash: hash, Claimant: caller, CreatedAt: now}
		if err := s.store.PutClaim(ctx, claim); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write claim")
		}
		return s.emit(ctx, audit.EventClaimRecorded, audit.Event{Account: caller, Commitment: hash})
	})
}

// Register reveals a claim and registers name to caller for one period, moving
// the stake fee from caller into custody. Caller must have approved custody
// for at least the fee.
func (s *Service) Register(ctx context.Context, name string, caller domain.Account, secret domain.Secret, now time.Time) (expiration time.Time, err error) {
	ctx, done := s.begin(ctx, "register", attribute.String("registrar.name", name), attribute.String("registrar.caller", caller.String()))
	defer func() { done(err) }()

	var staked uint64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if !models.ValidName(name) {
			return dErrors.New(dErrors.CodeInvalidName, "name must be 3 to 30 characters")
		}
		current, err := s.store.Expiration(ctx, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read expiration")
		}
		if !current.Before(now) {
			return dErrors.New(dErrors.CodeNotAvailable, "name is registered")
		}

		hash := models.ComputeCommitment(name, caller, secret)
		claim, err := s.store.Claim(ctx, hash)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotClaimer, "no claim for this name, account and secret")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim")
		}
		if claim.Claimant != caller {
			return dErrors.New(dErrors.CodeNotClaimer, "claim belongs to another account")
		}
		if !models.Revealable(claim.CreatedAt, now) {
			return dErrors.New(dErrors.CodeInvalidTime, "claim is outside its reveal window")
		}

		fee, err := models.StakeFee(name)
		if err != nil {
			return err
		}
		expiration = now.Add(models.RegistrationPeriod)

		if err := s.store.SetExpiration(ctx, name, expiration); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write expiration")
		}
		prior, err := s.store.Stake(ctx, caller, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read stake")
		}
		if err := s.store.SetStake(ctx, caller, name, prior+fee); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write stake")
		}

		if err := s.collateral.TransferFrom(ctx, s.custody, caller, s.custody, fee); err != nil {
			return err
		}
		if err := s.ownership.SetName(ctx, s.custody, name, caller); err != nil {
			return err
		}
		staked = fee
		return s.emit(ctx, audit.EventNameRegistered, audit.Event{Name: name, Account: caller, Amount: fee, Expiration: expiration})
	})
	if err != nil {
		return time.Time{}, err
	}
	if s.metrics != nil {
		s.metrics.AddStaked(staked)
	}
	return expiration, nil
}

// Renew extends caller's live registration by one period from its current
// expiration. A registration ending exactly at now may still be renewed.
func (s *Service) Renew(ctx context.Context, name string, caller domain.Account, now time.Time) (expiration time.Time, err error) {
	ctx, done := s.begin(ctx, "renew", attribute.String("registrar.name", name), attribute.String("registrar.caller", caller.String()))
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		owner, err := s.ownership.Name(ctx, name)
		if err != nil {
			return err
		}
		if owner != caller {
			return dErrors.New(dErrors.CodeNotOwner, "caller does not own the name")
		}
		current, err := s.store.Expiration(ctx, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read expiration")
		}
		if current.Before(now) {
			return dErrors.New(dErrors.CodeOwnershipExpired, "registration has expired")
		}

		expiration = current.Add(models.RegistrationPeriod)
		if err := s.store.SetExpiration(ctx, name, expiration); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write expiration")
		}
		return s.emit(ctx, audit.EventNameRenewed, audit.Event{Name: name, Account: caller, Expiration: expiration})
	})
	if err != nil {
		return time.Time{}, err
	}
	return expiration, nil
}

// Unstake returns caller's stake on name. If caller still holds the name it
// must have expired, and the registration and ownership entry are cleared.
// The stake is zeroed before collateral moves, so a nested call observes
// nothing staked.
func (s *Service) Unstake(ctx context.Context, name string, caller domain.Account, now time.Time) (amount uint64, err error) {
	ctx, done := s.begin(ctx, "unstake", attribute.String("registrar.name", name), attribute.String("registrar.caller", caller.String()))
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		staked, err := s.store.Stake(ctx, caller, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read stake")
		}
		if staked == 0 {
			return dErrors.New(dErrors.CodeNothingStaked, "nothing staked on this name")
		}
		if err := s.store.SetStake(ctx, caller, name, 0); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write stake")
		}

		owner, err := s.ownership.Name(ctx, name)
		if err != nil {
			return err
		}
		if owner == caller {
			current, err := s.store.Expiration(ctx, name)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read expiration")
			}
			if !current.Before(now) {
				return dErrors.New(dErrors.CodeNotExpired, "registration has not expired")
			}
			if err := s.store.SetExpiration(ctx, name, time.Time{}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear expiration")
			}
			if err := s.ownership.SetName(ctx, s.custody, name, domain.ZeroAccount); err != nil {
				return err
			}
		}

		if err := s.collateral.Transfer(ctx, s.custody, caller, staked); err != nil {
			return err
		}
		amount = staked
		return s.emit(ctx, audit.EventStakeReleased, audit.Event{Name: name, Account: caller, Amount: staked})
	})
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.AddReleased(amount)
	}
	return amount, nil
}

// CheckNameOwner returns the owner of a live registration, or the zero account.
func (s *Service) CheckNameOwner(ctx context.Context, name string, now time.Time) (domain.Account, error) {
	current, err := s.store.Expiration(ctx, name)
	if err != nil {
		return domain.ZeroAccount, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read expiration")
	}
	if !current.After(now) {
		return domain.ZeroAccount, nil
	}
	return s.ownership.Name(ctx, name)
}

// CheckNameAvailability reports whether name could be registered at now. At
// the instant of expiration a name is neither owned nor available.
func (s *Service) CheckNameAvailability(ctx context.Context, name string, now time.Time) (bool, error) {
	current, err := s.store.Expiration(ctx, name)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read expiration")
	}
	return current.Before(now), nil
}

func (s *Service) CheckNameValidity(name string) bool {
	return models.ValidName(name)
}

func (s *Service) CheckNameStakeFee(name string) (uint64, error) {
	return models.StakeFee(name)
}

// GetClaim returns the recorded claim for hash.
func (s *Service) GetClaim(ctx context.Context, hash domain.CommitmentHash) (*models.Claim, error) {
	claim, err := s.store.Claim(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim")
	}
	return claim, nil
}

// StakeOf returns what staker has staked on name.
func (s *Service) StakeOf(ctx context.Context, staker domain.Account, name string) (uint64, error) {
	amount, err := s.store.Stake(ctx, staker, name)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read stake")
	}
	return amount, nil
}

// Status projects everything known about name at now. Owner is the effective
// owner and is zero once the registration lapses.
func (s *Service) Status(ctx context.Context, name string, now time.Time) (*models.NameStatus, error) {
	current, err := s.store.Expiration(ctx, name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read expiration")
	}
	status := &models.NameStatus{
		Name:       name,
		Valid:      models.ValidName(name),
		Available:  current.Before(now),
		Expiration: current,
	}
	if fee, err := models.StakeFee(name); err == nil {
		status.StakeFee = fee
	}
	if current.After(now) {
		owner, err := s.ownership.Name(ctx, name)
		if err != nil {
			return nil, err
		}
		status.Owner = owner
	}
	return status, nil
}

// begin starts a span for operation and returns a func that ends it and
// records metrics.
func (s *Service) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registrar."+operation, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		var code string
		if err != nil {
			c, ok := dErrors.CodeOf(err)
			if !ok {
				c = dErrors.CodeInternal
			}
			code = string(c)
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
			span.SetAttributes(attribute.String("registrar.error_code", code))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, code, time.Since(start).Seconds())
		}
	}
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, e audit.Event) error {
	if s.logger != nil {
		args := []any{
			"account", e.Account.String(),
			"event", string(event),
			"log_type", "audit",
		}
		if e.Name != "" {
			args = append(args, "name", e.Name)
		}
		if !e.Commitment.IsZero() {
			args = append(args, "commitment", e.Commitment.String())
		}
		if e.Amount != 0 {
			args = append(args, "amount", e.Amount)
		}
		if !e.Expiration.IsZero() {
			args = append(args, "expiration", e.Expiration)
		}
		if requestID := requestcontext.RequestID(ctx); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return nil
	}
	e.Action = string(event)
	return s.auditPublisher.Emit(ctx, e)
}
