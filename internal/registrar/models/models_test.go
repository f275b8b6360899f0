package models

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"too short", "ab", false},
		{"minimum", "abc", true},
		{"maximum", strings.Repeat("a", 30), true},
		{"one over maximum", strings.Repeat("a", 31), false},
		{"thirty one is rejected", strings.Repeat("x", 31), false},
		{"multibyte counted by character", "日本語", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidName(tt.input))
		})
	}
}

func TestStakeFee(t *testing.T) {
	fee, err := StakeFee("abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(485), fee)

	fee, err = StakeFee(strings.Repeat("a", 30))
	require.NoError(t, err)
	assert.Equal(t, uint64(350), fee)

	fee, err = StakeFee(strings.Repeat("a", 99))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), fee)

	_, err = StakeFee(strings.Repeat("a", 100))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestComputeCommitment(t *testing.T) {
	claimant := domain.MustParseAccount("0x00000000000000000000000000000000000000a1")
	var secret domain.Secret
	secret[31] = 7

	t.Run("matches keccak over packed bytes", func(t *testing.T) {
		h := sha3.NewLegacyKeccak256()
		h.Write([]byte("alice"))
		h.Write(claimant[:])
		h.Write(secret[:])
		want := hex.EncodeToString(h.Sum(nil))

		got := ComputeCommitment("alice", claimant, secret)
		assert.Equal(t, "0x"+want, got.String())
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ComputeCommitment("alice", claimant, secret), ComputeCommitment("alice", claimant, secret))
	})

	t.Run("every input changes the hash", func(t *testing.T) {
		base := ComputeCommitment("alice", claimant, secret)
		other := secret
		other[0] = 1
		assert.NotEqual(t, base, ComputeCommitment("alicf", claimant, secret))
		assert.NotEqual(t, base, ComputeCommitment("alice", domain.MustParseAccount("0x00000000000000000000000000000000000000a2"), secret))
		assert.NotEqual(t, base, ComputeCommitment("alice", claimant, other))
	})

	t.Run("known empty-input digest", func(t *testing.T) {
		h := sha3.NewLegacyKeccak256()
		assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(h.Sum(nil)))
	})
}

func TestRevealWindow(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, Revealable(created, created.Add(RevealDelay)), "lower bound is exclusive")
	assert.True(t, Revealable(created, created.Add(RevealDelay+time.Second)))
	assert.True(t, Revealable(created, created.Add(ClaimLifetime-time.Second)))
	assert.False(t, Revealable(created, created.Add(ClaimLifetime)), "upper bound is exclusive")
}

func TestClaimReplaceable(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, ClaimReplaceable(created, created.Add(ClaimLifetime)))
	assert.True(t, ClaimReplaceable(created, created.Add(ClaimLifetime+time.Nanosecond)))
}
