// Package service implements the collateral ledger: a fungible balance ledger
// with allowances, used by the registration engine to take and return stakes.
package service

import (
	"context"
	"log/slog"

	"namereg/internal/collateral/models"
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	audit "namereg/pkg/platform/audit"
	"namereg/pkg/platform/tx"
	"namereg/pkg/requestcontext"
)

// Store is the persistence the ledger needs.
type Store interface {
	Balance(ctx context.Context, account domain.Account) (uint64, error)
	SetBalance(ctx context.Context, account domain.Account, amount uint64) error
	Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error)
	SetAllowance(ctx context.Context, owner, spender domain.Account, amount uint64) error
	TotalSupply(ctx context.Context) (uint64, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the collateral ledger.
type Service struct {
	store          Store
	tx             tx.Manager
	minter         domain.Account
	logger         *slog.Logger
	auditPublisher AuditPublisher
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

// WithMinter sets the only account allowed to mint. Without it minting is disabled.
func WithMinter(account domain.Account) Option {
	return func(s *Service) {
		s.minter = account
	}
}

// New constructs the ledger. Every mutation runs in a transaction of txm.
func New(store Store, txm tx.Manager, opts ...Option) *Service {
	s := &Service{store: store, tx: txm}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint credits amount to account. Only the configured minter may mint.
func (s *Service) Mint(ctx context.Context, caller, to domain.Account, amount uint64) error {
	if s.minter.IsZero() || caller != s.minter {
		return dErrors.New(dErrors.CodePermissionDenied, "caller is not the minter")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot mint to the zero account")
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		supply, err := s.store.TotalSupply(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read total supply")
		}
		if amount > models.MaxAmount-supply {
			return dErrors.New(dErrors.CodeInvalidInput, "mint exceeds maximum supply")
		}
		balance, err := s.store.Balance(ctx, to)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
		}
		if err := s.store.SetBalance(ctx, to, balance+amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write balance")
		}
		return s.emit(ctx, audit.EventCollateralMinted, to, caller, amount)
	})
}

// Approve sets the amount spender may move out of owner's balance, replacing any
// previous allowance.
func (s *Service) Approve(ctx context.Context, owner, spender domain.Account, amount uint64) error {
	if spender.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot approve the zero account")
	}
	if amount > models.MaxAmount {
		return dErrors.New(dErrors.CodeInvalidInput, "allowance exceeds maximum amount")
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SetAllowance(ctx, owner, spender, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write allowance")
		}
		return s.emit(ctx, audit.EventCollateralApproved, owner, spender, amount)
	})
}

// Transfer moves amount from the caller's balance to to.
func (s *Service) Transfer(ctx context.Context, from, to domain.Account, amount uint64) error {
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot transfer to the zero account")
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.move(ctx, from, to, amount); err != nil {
			return err
		}
		return s.emit(ctx, audit.EventCollateralTransferred, from, to, amount)
	})
}

// TransferFrom moves amount from from to to on behalf of spender, consuming
// spender's allowance.
func (s *Service) TransferFrom(ctx context.Context, spender, from, to domain.Account, amount uint64) error {
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot transfer to the zero account")
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		allowance, err := s.store.Allowance(ctx, from, spender)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read allowance")
		}
		if allowance < amount {
			return dErrors.New(dErrors.CodeInsufficientAllowance, "transfer amount exceeds allowance")
		}
		if err := s.move(ctx, from, to, amount); err != nil {
			return err
		}
		if err := s.store.SetAllowance(ctx, from, spender, allowance-amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write allowance")
		}
		return s.emit(ctx, audit.EventCollateralTransferred, from, to, amount)
	})
}

// BalanceOf returns the balance of account.
func (s *Service) BalanceOf(ctx context.Context, account domain.Account) (uint64, error) {
	balance, err := s.store.Balance(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}

// Allowance returns what spender may still move out of owner's balance.
func (s *Service) Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error) {
	allowance, err := s.store.Allowance(ctx, owner, spender)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read allowance")
	}
	return allowance, nil
}

// TotalSupply returns the sum of all balances.
func (s *Service) TotalSupply(ctx context.Context) (uint64, error) {
	supply, err := s.store.TotalSupply(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read total supply")
	}
	return supply, nil
}

// move must run inside a transaction.
func (s *Service) move(ctx context.Context, from, to domain.Account, amount uint64) error {
	fromBalance, err := s.store.Balance(ctx, from)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	if fromBalance < amount {
		return dErrors.New(dErrors.CodeInsufficientFunds, "transfer amount exceeds balance")
	}
	if from == to || amount == 0 {
		return nil
	}
	toBalance, err := s.store.Balance(ctx, to)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	if err := s.store.SetBalance(ctx, from, fromBalance-amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write balance")
	}
	if err := s.store.SetBalance(ctx, to, toBalance+amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write balance")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, account, counterparty domain.Account, amount uint64) error {
	if s.logger != nil {
		args := []any{
			"account", account.String(),
			"counterparty", counterparty.String(),
			"amount", amount,
			"event", string(event),
			"log_type", "audit",
		}
		if requestID := requestcontext.RequestID(ctx); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, audit.Event{
		Action:       string(event),
		Account:      account,
		Counterparty: counterparty,
		Amount:       amount,
	})
}
