// Package service implements the ownership ledger: a permissioned name -> account
// map. Managers write entries; the ledger owner administers the manager allow-list.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"namereg/internal/ownership/models"
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	audit "namereg/pkg/platform/audit"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/platform/tx"
	"namereg/pkg/requestcontext"
)

type Store interface {
	Name(ctx context.Context, name string) (domain.Account, error)
	SetName(ctx context.Context, name string, account domain.Account) error
	IsManager(ctx context.Context, account domain.Account) (bool, error)
	AddManager(ctx context.Context, account domain.Account, at time.Time) error
	RemoveManager(ctx context.Context, account domain.Account) error
	ListManagers(ctx context.Context) ([]models.Manager, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	tx             tx.Manager
	owner          domain.Account
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

// New constructs the ledger administered by owner.
func New(store Store, txm tx.Manager, owner domain.Account, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ownership store is required")
	}
	if txm == nil {
		return nil, errors.New("transaction manager is required")
	}
	if owner.IsZero() {
		return nil, errors.New("ledger owner must not be the zero account")
	}
	s := &Service{store: store, tx: txm, owner: owner}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Owner returns the administering account.
func (s *Service) Owner() domain.Account {
	return s.owner
}

// SetName maps name to account. The zero account clears the entry.
func (s *Service) SetName(ctx context.Context, caller domain.Account, name string, account domain.Account) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.store.IsManager(ctx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check manager")
		}
		if !ok {
			return dErrors.New(dErrors.CodePermissionDenied, "caller is not a manager")
		}
		if err := s.store.SetName(ctx, name, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write name")
		}
		return s.emit(ctx, audit.Event{
			Action:       string(audit.EventNameSet),
			Name:         name,
			Account:      account,
			Counterparty: caller,
		})
	})
}

// Name returns the account recorded for name, or the zero account.
func (s *Service) Name(ctx context.Context, name string) (domain.Account, error) {
	account, err := s.store.Name(ctx, name)
	if err != nil {
		return domain.ZeroAccount, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read name")
	}
	return account, nil
}

// AddManager allow-lists account. Owner only.
func (s *Service) AddManager(ctx context.Context, caller, account domain.Account) error {
	if caller != s.owner {
		return dErrors.New(dErrors.CodeForbidden, "only the ledger owner may add managers")
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "manager must not be the zero account")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		err := s.store.AddManager(ctx, account, requestcontext.Now(ctx))
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "account is already a manager")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add manager")
		}
		return s.emit(ctx, audit.Event{
			Action:       string(audit.EventManagerAdded),
			Account:      account,
			Counterparty: caller,
		})
	})
}

// RemoveManager drops account from the allow-list. Owner only.
func (s *Service) RemoveManager(ctx context.Context, caller, account domain.Account) error {
	if caller != s.owner {
		return dErrors.New(dErrors.CodeForbidden, "only the ledger owner may remove managers")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		err := s.store.RemoveManager(ctx, account)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account is not a manager")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove manager")
		}
		return s.emit(ctx, audit.Event{
			Action:       string(audit.EventManagerRemoved),
			Account:      account,
			Counterparty: caller,
		})
	})
}

// IsManager reports whether account may write names.
func (s *Service) IsManager(ctx context.Context, account domain.Account) (bool, error) {
	ok, err := s.store.IsManager(ctx, account)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check manager")
	}
	return ok, nil
}

// ListManagers returns the allow-list ordered by account.
func (s *Service) ListManagers(ctx context.Context) ([]models.Manager, error) {
	managers, err := s.store.ListManagers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list managers")
	}
	return managers, nil
}

// Roles returns the capabilities held by account.
func (s *Service) Roles(ctx context.Context, account domain.Account) ([]models.Role, error) {
	var roles []models.Role
	if account == s.owner {
		roles = append(roles, models.RoleOwner)
	}
	ok, err := s.IsManager(ctx, account)
	if err != nil {
		return nil, err
	}
	if ok {
		roles = append(roles, models.RoleManager)
	}
	return roles, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.logger != nil {
		args := []any{
			"name", event.Name,
			"account", event.Account.String(),
			"caller", event.Counterparty.String(),
			"event", event.Action,
			"log_type", "audit",
		}
		if requestID := requestcontext.RequestID(ctx); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		s.logger.InfoContext(ctx, event.Action, args...)
	}
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}
