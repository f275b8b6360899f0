package models

import (
	"math"

	"namereg/pkg/domain"
)

// MaxAmount bounds every balance, allowance and the total supply so amounts fit
// a signed 64-bit column.
const MaxAmount uint64 = math.MaxInt64

// Allowance is the amount Spender may move out of Owner's balance.
type Allowance struct {
	Owner   domain.Account `json:"owner"`
	Spender domain.Account `json:"spender"`
	Amount  uint64         `json:"amount"`
}

// Movement describes a completed balance transfer.
type Movement struct {
	From   domain.Account `json:"from"`
	To     domain.Account `json:"to"`
	Amount uint64         `json:"amount"`
}
