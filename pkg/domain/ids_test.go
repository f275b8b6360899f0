package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "namereg/pkg/domain-errors"
)

// TestParseAccount_Invariants validates the parsing invariant:
// "accounts are exactly 20 bytes of 0x-prefixed hex"
func TestParseAccount_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccount("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAccount(strings.Repeat("ab", AccountLength))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects short address", func(t *testing.T) {
		_, err := ParseAccount("0x1234")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-hex digits", func(t *testing.T) {
		_, err := ParseAccount("0x" + strings.Repeat("zz", AccountLength))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts mixed case and renders lowercase", func(t *testing.T) {
		a, err := ParseAccount("0x" + strings.Repeat("AB", AccountLength))
		require.NoError(t, err)
		assert.Equal(t, "0x"+strings.Repeat("ab", AccountLength), a.String())
		assert.False(t, a.IsZero())
	})

	t.Run("zero address parses to the null account", func(t *testing.T) {
		a, err := ParseAccount("0x" + strings.Repeat("00", AccountLength))
		require.NoError(t, err)
		assert.True(t, a.IsZero())
	})
}

func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"SQL injection attempt", "'; DROP TABLE names;--"},
		{"Path traversal", "../../../etc/passwd"},
		{"Null byte injection", "0x" + strings.Repeat("ab", 31) + "\x00a"},
		{"Oversized input", "0x" + strings.Repeat("a", 1000)},
		{"Whitespace only", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errAccount := ParseAccount(tt.input)
			_, errHash := ParseCommitmentHash(tt.input)
			_, errSecret := ParseSecret(tt.input)
			require.Error(t, errAccount)
			require.Error(t, errHash)
			require.Error(t, errSecret)
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	type payload struct {
		Account Account        `json:"account"`
		Hash    CommitmentHash `json:"hash"`
		Secret  Secret         `json:"secret"`
	}
	in := payload{
		Account: MustParseAccount("0x00000000000000000000000000000000000000a1"),
		Hash:    CommitmentHash{1, 2, 3},
		Secret:  Secret{9},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"account":"0x00000000000000000000000000000000000000a1"`)

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestMustParseAccountPanicsOnGarbage(t *testing.T) {
	assert.Panics(t, func() { MustParseAccount("nope") })
}
