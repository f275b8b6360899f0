package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"namereg/pkg/domain"
)

// EnvPrefix scopes every environment variable read by Load.
const EnvPrefix = "REGISTRAR_"

// ConfigFileEnv names the optional TOML file merged between defaults and env.
const ConfigFileEnv = EnvPrefix + "CONFIG_FILE"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr            string        `toml:"addr" env:"ADDR"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT"`

	Log       LogConfig       `toml:"log" envPrefix:"LOG_"`
	Store     StoreConfig     `toml:"store" envPrefix:"STORE_"`
	Postgres  PostgresConfig  `toml:"postgres" envPrefix:"POSTGRES_"`
	Redis     RedisConfig     `toml:"redis" envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `toml:"kafka" envPrefix:"KAFKA_"`
	Auth      AuthConfig      `toml:"auth" envPrefix:"AUTH_"`
	Accounts  AccountsConfig  `toml:"accounts" envPrefix:"ACCOUNTS_"`
	RateLimit RateLimitConfig `toml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Relay     RelayConfig     `toml:"relay" envPrefix:"RELAY_"`
	Tracing   TracingConfig   `toml:"tracing" envPrefix:"OTEL_"`
}

// LogConfig selects slog handler and level.
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// StoreConfig picks storage backends per component.
type StoreConfig struct {
	Backend          string `toml:"backend" env:"BACKEND"`
	OwnershipBackend string `toml:"ownership_backend" env:"OWNERSHIP_BACKEND"`
}

// PostgresConfig configures the database/sql pool.
type PostgresConfig struct {
	DSN             string        `toml:"dsn" env:"DSN"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	Migrate         bool          `toml:"migrate" env:"MIGRATE"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string        `toml:"url" env:"URL"`
	PoolSize     int           `toml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int           `toml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `toml:"dial_timeout" env:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
}

// KafkaConfig configures the event relay sink. Empty brokers selects the log sink.
type KafkaConfig struct {
	Brokers []string `toml:"brokers" env:"BROKERS" envSeparator:","`
	Topic   string   `toml:"topic" env:"TOPIC"`
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string        `toml:"jwt_signing_key" env:"JWT_SIGNING_KEY"`
	Issuer        string        `toml:"issuer" env:"ISSUER"`
	Audience      string        `toml:"audience" env:"AUDIENCE"`
	TokenTTL      time.Duration `toml:"token_ttl" env:"TOKEN_TTL"`
}

// AccountsConfig names the privileged accounts of the deployment.
type AccountsConfig struct {
	// Custody is the registration engine's own account: it spends approved
	// collateral, holds stakes and writes the ownership ledger as a manager.
	Custody domain.Account `toml:"custody" env:"CUSTODY"`
	// LedgerOwner administers ownership ledger managers.
	LedgerOwner domain.Account `toml:"ledger_owner" env:"LEDGER_OWNER"`
	// Minter may mint collateral.
	Minter domain.Account `toml:"minter" env:"MINTER"`
}

// RateLimitConfig bounds mutating requests per caller.
type RateLimitConfig struct {
	Enabled bool          `toml:"enabled" env:"ENABLED"`
	Backend string        `toml:"backend" env:"BACKEND"`
	Limit   int           `toml:"limit" env:"LIMIT"`
	Window  time.Duration `toml:"window" env:"WINDOW"`
}

// RelayConfig drives the outbox relay worker.
type RelayConfig struct {
	Interval  time.Duration `toml:"interval" env:"INTERVAL"`
	BatchSize int           `toml:"batch_size" env:"BATCH_SIZE"`
}

// TracingConfig enables OTLP span export. Tracing is off unless enabled with an endpoint.
type TracingConfig struct {
	Enabled     bool    `toml:"enabled" env:"ENABLED"`
	Endpoint    string  `toml:"endpoint" env:"ENDPOINT"`
	SampleRatio float64 `toml:"sample_ratio" env:"SAMPLE_RATIO"`
}

// Defaults returns a configuration runnable on a laptop with no external services.
func Defaults() Server {
	return Server{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		RequestTimeout:  15 * time.Second,
		Log:             LogConfig{Level: "info", Format: "json"},
		Store:           StoreConfig{Backend: BackendMemory, OwnershipBackend: BackendMemory},
		Postgres: PostgresConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			Migrate:         true,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{Topic: "namereg.events"},
		Auth: AuthConfig{
			// Development default; override in every shared environment.
			JWTSigningKey: "dev-secret-key-change-in-production",
			Issuer:        "namereg",
			Audience:      "namereg-api",
			TokenTTL:      time.Hour,
		},
		Accounts: AccountsConfig{
			Custody:     domain.MustParseAccount("0x00000000000000000000000000000000000c0571"),
			LedgerOwner: domain.MustParseAccount("0x0000000000000000000000000000000000000a11"),
			Minter:      domain.MustParseAccount("0x0000000000000000000000000000000000000a11"),
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Backend: BackendMemory,
			Limit:   60,
			Window:  time.Minute,
		},
		Relay:   RelayConfig{Interval: 2 * time.Second, BatchSize: 100},
		Tracing: TracingConfig{SampleRatio: 1},
	}
}

// Load merges defaults, the optional TOML file and REGISTRAR_ environment variables,
// in that order. A .env file in the working directory is loaded first when present.
func Load() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Server{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = dedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadFile overlays keys present in the TOML file onto cfg.
func LoadFile(path string, cfg *Server) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Server) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendMemory, BackendPostgres, c.Store.Backend)
	}
	switch c.Store.OwnershipBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("store.ownership_backend must be memory, postgres or redis, got %q", c.Store.OwnershipBackend)
	}
	if c.Store.Backend == BackendMemory && c.Store.OwnershipBackend == BackendPostgres {
		return errors.New("store.ownership_backend postgres requires store.backend postgres")
	}
	if c.Store.Backend == BackendPostgres && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required for the postgres backend")
	}
	if (c.Store.OwnershipBackend == BackendRedis || c.RateLimit.Backend == BackendRedis) && c.Redis.URL == "" {
		return errors.New("redis.url is required for redis backends")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Backend != BackendMemory && c.RateLimit.Backend != BackendRedis {
			return fmt.Errorf("rate_limit.backend must be memory or redis, got %q", c.RateLimit.Backend)
		}
		if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
			return errors.New("rate_limit.limit and rate_limit.window must be positive")
		}
	}
	if c.Auth.JWTSigningKey == "" {
		return errors.New("auth.jwt_signing_key is required")
	}
	if c.Accounts.Custody.IsZero() {
		return errors.New("accounts.custody must not be the zero account")
	}
	if c.Accounts.LedgerOwner.IsZero() {
		return errors.New("accounts.ledger_owner must not be the zero account")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("tracing.sample_ratio must be within [0, 1]")
	}
	if c.Relay.Interval <= 0 || c.Relay.BatchSize <= 0 {
		return errors.New("relay.interval and relay.batch_size must be positive")
	}
	return nil
}

// dedupeAndTrim drops blank and repeated entries, keeping first-seen order.
func dedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
