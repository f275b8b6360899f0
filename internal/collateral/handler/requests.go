package handler

import (
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

// ApproveRequest is the body of POST /v1/collateral/approve.
type ApproveRequest struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`

	spender domain.Account
}

func (r *ApproveRequest) Validate() error {
	if r.Spender == "" {
		return dErrors.New(dErrors.CodeValidation, "spender is required")
	}
	spender, err := domain.ParseAccount(r.Spender)
	if err != nil {
		return err
	}
	r.spender = spender
	return nil
}

// TransferRequest is the body of POST /v1/collateral/transfer and /mint.
type TransferRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`

	to domain.Account
}

func (r *TransferRequest) Validate() error {
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	to, err := domain.ParseAccount(r.To)
	if err != nil {
		return err
	}
	r.to = to
	return nil
}

type BalanceResponse struct {
	Account domain.Account `json:"account"`
	Balance uint64         `json:"balance"`
}

type AllowanceResponse struct {
	Owner   domain.Account `json:"owner"`
	Spender domain.Account `json:"spender"`
	Amount  uint64         `json:"amount"`
}

type MovementResponse struct {
	From   domain.Account `json:"from"`
	To     domain.Account `json:"to"`
	Amount uint64         `json:"amount"`
}
