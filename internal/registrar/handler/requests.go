package handler

import (
	"time"

	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

// CommitmentRequest is the body of POST /v1/commitments.
type CommitmentRequest struct {
	Name     string `json:"name"`
	Claimant string `json:"claimant"`
	Secret   string `json:"secret"`

	claimant domain.Account
	secret   domain.Secret
}

func (r *CommitmentRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Claimant == "" {
		return dErrors.New(dErrors.CodeValidation, "claimant is required")
	}
	if r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "secret is required")
	}
	claimant, err := domain.ParseAccount(r.Claimant)
	if err != nil {
		return err
	}
	secret, err := domain.ParseSecret(r.Secret)
	if err != nil {
		return err
	}
	r.claimant, r.secret = claimant, secret
	return nil
}

// ClaimRequest is the body of POST /v1/claims.
type ClaimRequest struct {
	Commitment string `json:"commitment"`

	commitment domain.CommitmentHash
}

func (r *ClaimRequest) Validate() error {
	if r.Commitment == "" {
		return dErrors.New(dErrors.CodeValidation, "commitment is required")
	}
	hash, err := domain.ParseCommitmentHash(r.Commitment)
	if err != nil {
		return err
	}
	r.commitment = hash
	return nil
}

// RegisterRequest is the body of POST /v1/names/{name}/register.
type RegisterRequest struct {
	Secret string `json:"secret"`

	secret domain.Secret
}

func (r *RegisterRequest) Validate() error {
	if r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "secret is required")
	}
	secret, err := domain.ParseSecret(r.Secret)
	if err != nil {
		return err
	}
	r.secret = secret
	return nil
}

type CommitmentResponse struct {
	Commitment domain.CommitmentHash `json:"commitment"`
}

type RegistrationResponse struct {
	Name       string         `json:"name"`
	Owner      domain.Account `json:"owner"`
	Expiration time.Time      `json:"expiration"`
	Stake      uint64         `json:"stake,omitempty"`
}
