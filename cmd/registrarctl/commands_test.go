package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "namereg/internal/jwt_token"
	"namereg/internal/platform/config"
	"namereg/internal/registrar/models"
	"namereg/pkg/domain"
)

const (
	claimant = "0x00000000000000000000000000000000000000a1"
	secret   = "0x0101010101010101010101010101010101010101010101010101010101010101"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestCommitMatchesRegistrarCommitment(t *testing.T) {
	out, err := execute(t, "commit", "alice", "--claimant", claimant, "--secret", secret)
	require.NoError(t, err)

	want := models.ComputeCommitment("alice", domain.MustParseAccount(claimant), mustSecret(t))
	assert.Equal(t, want.String(), out)
}

func TestCommitRejectsBadSecret(t *testing.T) {
	_, err := execute(t, "commit", "alice", "--claimant", claimant, "--secret", "0x12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--secret")
}

func TestFee(t *testing.T) {
	out, err := execute(t, "fee", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob: 485", out)

	out, err = execute(t, "--json", "fee", "alice")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.EqualValues(t, 475, body["stake_fee"])

	_, err = execute(t, "fee", "ab")
	require.Error(t, err)
}

func TestSecretIsParseable(t *testing.T) {
	out, err := execute(t, "secret")
	require.NoError(t, err)
	_, err = domain.ParseSecret(out)
	require.NoError(t, err)
}

func TestTokenValidatesWithServerConfig(t *testing.T) {
	t.Setenv(config.EnvPrefix+"AUTH_JWT_SIGNING_KEY", "test-signing-key")
	out, err := execute(t, "token", "--account", claimant, "--ttl", "5m")
	require.NoError(t, err)

	cfg := config.Defaults()
	svc := jwttoken.NewJWTService("test-signing-key", cfg.Auth.Issuer, cfg.Auth.Audience)
	account, err := svc.AccountFromToken(out)
	require.NoError(t, err)
	assert.Equal(t, claimant, account.String())
}

func mustSecret(t *testing.T) domain.Secret {
	t.Helper()
	s, err := domain.ParseSecret(secret)
	require.NoError(t, err)
	return s
}
