package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	collateralhandler "namereg/internal/collateral/handler"
	collateralservice "namereg/internal/collateral/service"
	collateralstore "namereg/internal/collateral/store"
	jwttoken "namereg/internal/jwt_token"
	ownershiphandler "namereg/internal/ownership/handler"
	ownershipservice "namereg/internal/ownership/service"
	ownershipstore "namereg/internal/ownership/store"
	"namereg/internal/platform/config"
	"namereg/internal/platform/metrics"
	"namereg/internal/platform/postgres"
	platformredis "namereg/internal/platform/redis"
	ratelimitmetrics "namereg/internal/ratelimit/metrics"
	ratelimitmw "namereg/internal/ratelimit/middleware"
	"namereg/internal/ratelimit/store/bucket"
	registrarhandler "namereg/internal/registrar/handler"
	registrarmetrics "namereg/internal/registrar/metrics"
	registrarservice "namereg/internal/registrar/service"
	registrarstore "namereg/internal/registrar/store"
	httptransport "namereg/internal/transport/http"
	"namereg/pkg/platform/audit"
	auditpublisher "namereg/pkg/platform/audit/publisher"
	kafkasink "namereg/pkg/platform/audit/publishers/kafka"
	"namereg/pkg/platform/audit/publishers/logsink"
	auditmemory "namereg/pkg/platform/audit/store/memory"
	auditpostgres "namereg/pkg/platform/audit/store/postgres"
	"namereg/pkg/platform/audit/worker"
	"namereg/pkg/platform/tx"
)

type app struct {
	Router  http.Handler
	Relay   *worker.Relay
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

type stores struct {
	txm        tx.Manager
	outbox     audit.OutboxStore
	collateral collateralservice.Store
	ownership  ownershipservice.Store
	registrar  registrarservice.Store
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	health := map[string]httptransport.HealthCheck{}

	var db *sql.DB
	if cfg.Store.Backend == config.BackendPostgres {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				a.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		health["postgres"] = db.PingContext
	}

	var rdb *platformredis.Client
	if cfg.Store.OwnershipBackend == config.BackendRedis || (cfg.RateLimit.Enabled && cfg.RateLimit.Backend == config.BackendRedis) {
		var err error
		rdb, err = platformredis.New(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		health["redis"] = rdb.Health
	}

	st := buildStores(cfg, db, rdb)

	auditLog := log.With("component", "audit")
	events := auditpublisher.New(st.outbox,
		auditpublisher.WithLogger(auditLog),
		auditpublisher.WithMetrics(auditpublisher.NewMetrics(reg)),
	)

	collateral := collateralservice.New(st.collateral, st.txm,
		collateralservice.WithLogger(log),
		collateralservice.WithAuditPublisher(events),
		collateralservice.WithMinter(cfg.Accounts.Minter),
	)
	ownership, err := ownershipservice.New(st.ownership, st.txm, cfg.Accounts.LedgerOwner,
		ownershipservice.WithLogger(log),
		ownershipservice.WithAuditPublisher(events),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := ensureCustodyManager(ctx, ownership, cfg.Accounts, log); err != nil {
		a.Close()
		return nil, err
	}

	registrar, err := registrarservice.New(st.registrar, st.txm, collateral, ownership, cfg.Accounts.Custody,
		registrarservice.WithLogger(log),
		registrarservice.WithAuditPublisher(events),
		registrarservice.WithMetrics(registrarmetrics.New(reg)),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	sink, closeSink, err := buildSink(cfg.Kafka, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeSink)
	a.Relay = worker.NewRelay(st.outbox, sink,
		worker.WithInterval(cfg.Relay.Interval),
		worker.WithBatchSize(cfg.Relay.BatchSize),
		worker.WithLogger(log.With("component", "relay")),
		worker.WithMetrics(worker.NewMetrics(reg)),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	a.Router = httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		RequestTimeout: cfg.RequestTimeout,
		Components: []httptransport.Component{
			registrarhandler.New(registrar, log),
			collateralhandler.New(collateral, log),
		},
		Admin:     []httptransport.WriteOnly{ownershiphandler.New(ownership, log)},
		Events:    events,
		RateLimit: buildRateLimiter(cfg.RateLimit, rdb, reg, log),
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Health:    health,
	})
	return a, nil
}

func buildStores(cfg config.Server, db *sql.DB, rdb *platformredis.Client) stores {
	var st stores
	if db != nil {
		st.txm = tx.NewSQLManager(db)
		st.outbox = auditpostgres.New(db)
		st.collateral = collateralstore.NewPostgres(db)
		st.registrar = registrarstore.NewPostgres(db)
	} else {
		st.txm = tx.NewMemoryManager(cfg.RequestTimeout)
		st.outbox = auditmemory.NewInMemoryStore()
		st.collateral = collateralstore.NewInMemory()
		st.registrar = registrarstore.NewInMemory()
	}

	switch cfg.Store.OwnershipBackend {
	case config.BackendPostgres:
		st.ownership = ownershipstore.NewPostgres(db)
	case config.BackendRedis:
		st.ownership = ownershipstore.NewRedis(rdb.Client)
	default:
		st.ownership = ownershipstore.NewInMemory()
	}
	return st
}

// ensureCustodyManager lets the registration engine write the ownership ledger.
func ensureCustodyManager(ctx context.Context, ownership *ownershipservice.Service, accounts config.AccountsConfig, log *slog.Logger) error {
	ok, err := ownership.IsManager(ctx, accounts.Custody)
	if err != nil {
		return fmt.Errorf("check custody manager: %w", err)
	}
	if ok {
		return nil
	}
	if err := ownership.AddManager(ctx, accounts.LedgerOwner, accounts.Custody); err != nil {
		return fmt.Errorf("add custody manager: %w", err)
	}
	log.InfoContext(ctx, "custody account added as ownership manager", "custody", accounts.Custody.String())
	return nil
}

func buildSink(cfg config.KafkaConfig, log *slog.Logger) (worker.Sink, func() error, error) {
	if len(cfg.Brokers) == 0 {
		return logsink.New(log.With("component", "event_sink")), func() error { return nil }, nil
	}
	client, err := kafkasink.NewClient(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka client: %w", err)
	}
	closeClient := func() error {
		client.Close()
		return nil
	}
	return kafkasink.NewSink(client, cfg.Topic), closeClient, nil
}

func buildRateLimiter(cfg config.RateLimitConfig, rdb *platformredis.Client, reg prometheus.Registerer, log *slog.Logger) *ratelimitmw.Middleware {
	rlLog := log.With("component", "ratelimit")
	opts := []ratelimitmw.Option{
		ratelimitmw.WithDisabled(!cfg.Enabled),
		ratelimitmw.WithMetrics(ratelimitmetrics.New(reg)),
	}
	var primary ratelimitmw.Limiter = bucket.NewInMemoryBucketStore()
	if cfg.Enabled && cfg.Backend == config.BackendRedis && rdb != nil {
		primary = bucket.NewRedisBucketStore(rdb.Client)
		opts = append(opts, ratelimitmw.WithFallback(bucket.NewInMemoryBucketStore()))
	}
	return ratelimitmw.New(primary, cfg.Limit, cfg.Window, rlLog, opts...)
}
