package domain

import (
	"encoding/hex"
	"strings"

	dErrors "namereg/pkg/domain-errors"
)

// AccountLength is the byte length of an account address.
const AccountLength = 20

// HashLength is the byte length of commitment hashes and claim secrets.
const HashLength = 32

// Account identifies a ledger participant. The zero value is the null account.
type Account [AccountLength]byte

// ZeroAccount is the null account returned for unset or expired ownership.
var ZeroAccount Account

// ParseAccount parses a 0x-prefixed, 40 hex digit account address.
func ParseAccount(s string) (Account, error) {
	var a Account
	if err := decodeFixedHex(s, a[:]); err != nil {
		return Account{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid account")
	}
	return a, nil
}

// MustParseAccount is ParseAccount for constants and tests.
func MustParseAccount(s string) Account {
	a, err := ParseAccount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the account as lowercase 0x-prefixed hex.
func (a Account) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether a is the null account.
func (a Account) IsZero() bool {
	return a == ZeroAccount
}

func (a Account) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Account) UnmarshalText(text []byte) error {
	parsed, err := ParseAccount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// CommitmentHash is the digest binding a hidden (name, claimant, secret) triple.
type CommitmentHash [HashLength]byte

// ParseCommitmentHash parses a 0x-prefixed, 64 hex digit digest.
func ParseCommitmentHash(s string) (CommitmentHash, error) {
	var h CommitmentHash
	if err := decodeFixedHex(s, h[:]); err != nil {
		return CommitmentHash{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid commitment hash")
	}
	return h, nil
}

func (h CommitmentHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h CommitmentHash) IsZero() bool {
	return h == CommitmentHash{}
}

func (h CommitmentHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *CommitmentHash) UnmarshalText(text []byte) error {
	parsed, err := ParseCommitmentHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Secret is the claimant-chosen salt hidden inside a commitment.
type Secret [HashLength]byte

// ParseSecret parses a 0x-prefixed, 64 hex digit secret.
func ParseSecret(s string) (Secret, error) {
	var sec Secret
	if err := decodeFixedHex(s, sec[:]); err != nil {
		return Secret{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid secret")
	}
	return sec, nil
}

func (s Secret) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Secret) UnmarshalText(text []byte) error {
	parsed, err := ParseSecret(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func decodeFixedHex(s string, dst []byte) error {
	body, ok := strings.CutPrefix(s, "0x")
	if !ok {
		body, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return dErrors.New(dErrors.CodeInvalidInput, "missing 0x prefix")
	}
	if len(body) != 2*len(dst) {
		return dErrors.New(dErrors.CodeInvalidInput, "wrong length")
	}
	if _, err := hex.Decode(dst, []byte(body)); err != nil {
		return err
	}
	return nil
}
