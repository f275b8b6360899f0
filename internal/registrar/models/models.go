// Package models holds the registration engine's records, constants and the pure
// functions over them (name validity, stake fee, commitment hashing).
package models

import (
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"

	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

const (
	// RevealDelay is how long a claim must age before it can be revealed.
	RevealDelay = time.Minute
	// ClaimLifetime bounds the reveal window and is the cooldown before a
	// commitment hash can be claimed again.
	ClaimLifetime = 24 * time.Hour
	// RegistrationPeriod is the term granted by a registration or renewal.
	RegistrationPeriod = 30 * 24 * time.Hour

	// FeeRate is the collateral charged per unit of the fee band.
	FeeRate uint64 = 5
	// FeeBand is the length the fee counts down from.
	FeeBand = 100

	MinNameLength = 3
	MaxNameLength = 30
)

// Claim is a hidden commitment to register a name.
type Claim struct {
	Hash      domain.CommitmentHash `json:"hash"`
	Claimant  domain.Account        `json:"claimant"`
	CreatedAt time.Time             `json:"created_at"`
}

// Registration is a name's term. The zero Expiration means never registered or cleared.
type Registration struct {
	Name       string         `json:"name"`
	Owner      domain.Account `json:"owner"`
	Expiration time.Time      `json:"expiration"`
}

// Stake is collateral held for Staker against Name.
type Stake struct {
	Staker domain.Account `json:"staker"`
	Name   string         `json:"name"`
	Amount uint64         `json:"amount"`
}

// NameStatus is the read projection of a name at an instant.
type NameStatus struct {
	Name       string         `json:"name"`
	Valid      bool           `json:"valid"`
	Available  bool           `json:"available"`
	Owner      domain.Account `json:"owner"`
	Expiration time.Time      `json:"expiration"`
	StakeFee   uint64         `json:"stake_fee"`
}

// NameLength counts characters, not bytes.
func NameLength(name string) int {
	return utf8.RuneCountInString(name)
}

// ValidName reports whether name has MinNameLength..MaxNameLength characters.
func ValidName(name string) bool {
	n := NameLength(name)
	return n >= MinNameLength && n <= MaxNameLength
}

// StakeFee returns FeeRate * (FeeBand - length). Names at or beyond the band
// have no defined fee.
func StakeFee(name string) (uint64, error) {
	n := NameLength(name)
	if n >= FeeBand {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "stake fee undefined for names of 100 or more characters")
	}
	return FeeRate * uint64(FeeBand-n), nil
}

// ComputeCommitment is Keccak-256 over the packed bytes name || claimant || secret.
func ComputeCommitment(name string, claimant domain.Account, secret domain.Secret) domain.CommitmentHash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	h.Write(claimant[:])
	h.Write(secret[:])

	var out domain.CommitmentHash
	copy(out[:], h.Sum(nil))
	return out
}

// Revealable reports whether a claim created at created may be revealed at now:
// strictly after RevealDelay and strictly before ClaimLifetime.
func Revealable(created, now time.Time) bool {
	return created.Add(RevealDelay).Before(now) && now.Before(created.Add(ClaimLifetime))
}

// ClaimReplaceable reports whether a claim created at created may be overwritten at now.
func ClaimReplaceable(created, now time.Time) bool {
	return created.Add(ClaimLifetime).Before(now)
}
