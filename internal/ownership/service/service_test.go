package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"namereg/internal/ownership/models"
	"namereg/internal/ownership/store"
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	audit "namereg/pkg/platform/audit"
	"namereg/pkg/platform/audit/publisher"
	auditmemory "namereg/pkg/platform/audit/store/memory"
	"namereg/pkg/platform/tx"
	"namereg/pkg/requestcontext"
)

var (
	ledgerOwner = domain.MustParseAccount("0x00000000000000000000000000000000000000ff")
	registrar   = domain.MustParseAccount("0x00000000000000000000000000000000000000e1")
	alice       = domain.MustParseAccount("0x00000000000000000000000000000000000000a1")
)

// =============================================================================
// Ownership Ledger Test Suite
// =============================================================================

type OwnershipSuite struct {
	suite.Suite
	ctx     context.Context
	txm     *tx.MemoryManager
	events  *auditmemory.InMemoryStore
	service *Service
}

func TestOwnershipSuite(t *testing.T) {
	suite.Run(t, new(OwnershipSuite))
}

func (s *OwnershipSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s.txm = tx.NewMemoryManager(time.Second)
	s.events = auditmemory.NewInMemoryStore()
	svc, err := New(store.NewInMemory(), s.txm, ledgerOwner,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.New(s.events)),
	)
	s.Require().NoError(err)
	s.service = svc
}

// =============================================================================
// Constructor
// =============================================================================

func (s *OwnershipSuite) TestNew() {
	s.Run("nil store", func() {
		_, err := New(nil, s.txm, ledgerOwner)
		s.ErrorContains(err, "ownership store is required")
	})
	s.Run("zero owner", func() {
		_, err := New(store.NewInMemory(), s.txm, domain.ZeroAccount)
		s.ErrorContains(err, "ledger owner")
	})
}

// =============================================================================
// Manager administration
// =============================================================================

func (s *OwnershipSuite) TestManagers() {
	s.Run("non-owner cannot add", func() {
		err := s.service.AddManager(s.ctx, alice, registrar)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner adds manager", func() {
		s.Require().NoError(s.service.AddManager(s.ctx, ledgerOwner, registrar))
		ok, err := s.service.IsManager(s.ctx, registrar)
		s.Require().NoError(err)
		s.True(ok)

		managers, err := s.service.ListManagers(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(managers, 1)
		s.Equal(registrar, managers[0].Account)
		s.Equal(requestcontext.Now(s.ctx), managers[0].AddedAt)
	})

	s.Run("adding twice conflicts", func() {
		err := s.service.AddManager(s.ctx, ledgerOwner, registrar)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("removing an absent manager is not found", func() {
		err := s.service.RemoveManager(s.ctx, ledgerOwner, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("non-owner cannot remove", func() {
		err := s.service.RemoveManager(s.ctx, registrar, registrar)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner removes manager", func() {
		s.Require().NoError(s.service.RemoveManager(s.ctx, ledgerOwner, registrar))
		ok, err := s.service.IsManager(s.ctx, registrar)
		s.Require().NoError(err)
		s.False(ok)
	})
}

// =============================================================================
// Name writes
// =============================================================================

func (s *OwnershipSuite) TestSetName() {
	s.Run("non-manager is denied", func() {
		err := s.service.SetName(s.ctx, registrar, "alice", alice)
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	s.Require().NoError(s.service.AddManager(s.ctx, ledgerOwner, registrar))

	s.Run("manager writes and clears", func() {
		s.Require().NoError(s.service.SetName(s.ctx, registrar, "alice", alice))
		got, err := s.service.Name(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal(alice, got)

		s.Require().NoError(s.service.SetName(s.ctx, registrar, "alice", domain.ZeroAccount))
		got, err = s.service.Name(s.ctx, "alice")
		s.Require().NoError(err)
		s.True(got.IsZero())
	})

	s.Run("emits name_set with the writing manager", func() {
		events, err := s.events.ListRecent(s.ctx, 1)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventNameSet), events[0].Action)
		s.Equal(registrar, events[0].Counterparty)
	})

	s.Run("outer rollback restores the previous owner", func() {
		s.Require().NoError(s.service.SetName(s.ctx, registrar, "bob", alice))
		err := s.txm.RunInTx(s.ctx, func(ctx context.Context) error {
			s.Require().NoError(s.service.SetName(ctx, registrar, "bob", registrar))
			return errors.New("abort")
		})
		s.Require().Error(err)
		got, err := s.service.Name(s.ctx, "bob")
		s.Require().NoError(err)
		s.Equal(alice, got)
	})
}

func (s *OwnershipSuite) TestRoles() {
	s.Require().NoError(s.service.AddManager(s.ctx, ledgerOwner, ledgerOwner))

	roles, err := s.service.Roles(s.ctx, ledgerOwner)
	s.Require().NoError(err)
	s.Equal([]models.Role{models.RoleOwner, models.RoleManager}, roles)

	roles, err = s.service.Roles(s.ctx, alice)
	s.Require().NoError(err)
	s.Empty(roles)
}
