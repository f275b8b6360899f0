//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"namereg/internal/collateral/store"
	"namereg/pkg/domain"
	"namereg/pkg/platform/tx"
	"namereg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "collateral_balances", "collateral_allowances"))
}

var (
	alice = domain.MustParseAccount("0x00000000000000000000000000000000000000a1")
	bob   = domain.MustParseAccount("0x00000000000000000000000000000000000000b0")
)

func (s *PostgresStoreSuite) TestBalancesRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.store.SetBalance(ctx, alice, 42))
	s.Require().NoError(s.store.SetBalance(ctx, bob, 8))

	bal, err := s.store.Balance(ctx, alice)
	s.Require().NoError(err)
	s.Equal(uint64(42), bal)

	total, err := s.store.TotalSupply(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(50), total)

	s.Require().NoError(s.store.SetBalance(ctx, alice, 0))
	bal, err = s.store.Balance(ctx, alice)
	s.Require().NoError(err)
	s.Zero(bal)
}

func (s *PostgresStoreSuite) TestWritesRollBackWithTransaction() {
	ctx := context.Background()
	s.Require().NoError(s.store.SetAllowance(ctx, alice, bob, 5))

	err := tx.NewSQLManager(s.postgres.DB).RunInTx(ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.SetAllowance(ctx, alice, bob, 500))
		s.Require().NoError(s.store.SetBalance(ctx, bob, 500))
		return errors.New("abort")
	})
	s.Require().Error(err)

	allowance, err := s.store.Allowance(ctx, alice, bob)
	s.Require().NoError(err)
	s.Equal(uint64(5), allowance)
	bal, err := s.store.Balance(ctx, bob)
	s.Require().NoError(err)
	s.Zero(bal)
}
