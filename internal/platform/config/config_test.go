package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/pkg/domain"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoad_FileThenEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "registrar.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr = ":9090"

[log]
level = "debug"

[rate_limit]
limit = 5
window = "30s"

[accounts]
custody = "0x00000000000000000000000000000000000000c1"
`), 0o600))

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("REGISTRAR_LOG_FORMAT", "text")
	t.Setenv("REGISTRAR_RATE_LIMIT_LIMIT", "7")
	t.Setenv("REGISTRAR_KAFKA_BROKERS", " k1:9092,k2:9092,,k1:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 7, cfg.RateLimit.Limit, "env overrides file")
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, domain.MustParseAccount("0x00000000000000000000000000000000000000c1"), cfg.Accounts.Custody)
	assert.Equal(t, BackendMemory, cfg.Store.Backend, "untouched keys keep defaults")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REGISTRAR_ADDR=:7070\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("REGISTRAR_ADDR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Server)
	}{
		{"unknown backend", func(c *Server) { c.Store.Backend = "sqlite" }},
		{"postgres without dsn", func(c *Server) { c.Store.Backend = BackendPostgres }},
		{"postgres ownership on memory", func(c *Server) { c.Store.OwnershipBackend = BackendPostgres }},
		{"redis without url", func(c *Server) { c.Store.OwnershipBackend = BackendRedis }},
		{"zero custody", func(c *Server) { c.Accounts.Custody = domain.ZeroAccount }},
		{"empty signing key", func(c *Server) { c.Auth.JWTSigningKey = "" }},
		{"bad rate limit", func(c *Server) { c.RateLimit.Limit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, dedupeAndTrim(nil))
	assert.Equal(t, []string{"foo", "bar"}, dedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}))
}
