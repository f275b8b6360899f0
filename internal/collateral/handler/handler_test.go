package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"namereg/internal/collateral/handler/mocks"
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/testutil"
)

var (
	alice   = domain.MustParseAccount("0x00000000000000000000000000000000000000a1")
	custody = domain.MustParseAccount("0x00000000000000000000000000000000000000c0")
)

type CollateralHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestCollateralHandlerSuite(t *testing.T) {
	suite.Run(t, new(CollateralHandlerSuite))
}

func (s *CollateralHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterReads(s.router)
	h.Register(s.router)
}

func (s *CollateralHandlerSuite) TestBalance() {
	s.Run("returns balance", func() {
		s.service.EXPECT().BalanceOf(gomock.Any(), alice).Return(uint64(250), nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/accounts/"+alice.String()+"/balance"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal(float64(250), (*resp)["balance"])
		s.Equal(alice.String(), (*resp)["account"])
	})

	s.Run("malformed account", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/accounts/nope/balance"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *CollateralHandlerSuite) TestAllowance() {
	s.service.EXPECT().Allowance(gomock.Any(), alice, custody).Return(uint64(9), nil)

	path := "/v1/accounts/" + alice.String() + "/allowances/" + custody.String()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "amount", float64(9))
}

func (s *CollateralHandlerSuite) TestApprove() {
	s.Run("requires authentication", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/collateral/approve", map[string]any{"spender": custody.String(), "amount": 5})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("approves for the caller", func() {
		s.service.EXPECT().Approve(gomock.Any(), alice, custody, uint64(5)).Return(nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/collateral/approve", map[string]any{"spender": custody.String(), "amount": 5})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, alice.String()))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("missing spender", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/collateral/approve", map[string]any{"amount": 5})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, alice.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *CollateralHandlerSuite) TestTransfer() {
	s.Run("insufficient funds maps to 402", func() {
		s.service.EXPECT().Transfer(gomock.Any(), alice, custody, uint64(1000)).
			Return(dErrors.New(dErrors.CodeInsufficientFunds, "transfer amount exceeds balance"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/collateral/transfer", map[string]any{"to": custody.String(), "amount": 1000})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, alice.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusPaymentRequired, "insufficient_funds")
	})
}

func (s *CollateralHandlerSuite) TestMint() {
	s.Run("minter mints", func() {
		s.service.EXPECT().Mint(gomock.Any(), alice, custody, uint64(77)).Return(nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/collateral/mint", map[string]any{"to": custody.String(), "amount": 77})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, alice.String()))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("denied caller maps to 403", func() {
		s.service.EXPECT().Mint(gomock.Any(), alice, custody, uint64(1)).
			Return(dErrors.New(dErrors.CodePermissionDenied, "caller is not the minter"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/collateral/mint", map[string]any{"to": custody.String(), "amount": 1})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, alice.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "permission_denied")
	})
}
