// Command server runs the name registrar HTTP API and its outbox relay.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"namereg/internal/platform/config"
	"namereg/internal/platform/httpserver"
	"namereg/internal/platform/logger"
	"namereg/internal/platform/tracing"
)

const serviceName = "namereg"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := httpserver.New(cfg.Addr, app.Router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.ShutdownTimeout, log)
	})
	g.Go(func() error {
		return app.Relay.Run(gctx)
	})
	log.Info("namereg started",
		"addr", cfg.Addr,
		"store_backend", cfg.Store.Backend,
		"ownership_backend", cfg.Store.OwnershipBackend,
		"custody", cfg.Accounts.Custody.String(),
	)
	return g.Wait()
}
