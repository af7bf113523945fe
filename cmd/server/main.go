package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"signup/internal/platform/config"
	"signup/internal/platform/httpserver"
	"signup/internal/platform/logger"
	"signup/internal/platform/metrics"
	"signup/internal/platform/postgres"
	"signup/internal/profile/handler"
	"signup/internal/profile/service"
	"signup/internal/profile/store"
	"signup/internal/profile/store/migrations"
	httptransport "signup/internal/transport/http"
	"signup/pkg/secrets"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	profileStore, health, closeStore, err := buildStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	production := cfg.Server.Production()
	hasher := secrets.NewHasher(cfg.Security.BcryptCost)
	if hasher.Cost() != cfg.Security.BcryptCost {
		log.Warn("BCRYPT_COST out of range, using default", "bcrypt_cost", hasher.Cost())
	}
	svc := service.New(profileStore,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithHasher(hasher),
		service.WithProduction(production),
	)

	router := httptransport.NewRouter(httptransport.Options{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Health:         health,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, handler.New(svc, log, production))

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting signup server",
			"addr", cfg.Server.Addr,
			"environment", cfg.Server.Environment,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down signup server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// buildStore selects Postgres when DATABASE_URL is set and the in-memory
// store otherwise.
func buildStore(ctx context.Context, cfg config.Database, log *slog.Logger) (service.Store, httptransport.HealthChecker, func(), error) {
	client, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		log.Warn("DATABASE_URL not set, using in-memory profile store")
		mem := store.NewInMemory()
		return mem, mem.Health, func() {}, nil
	}

	if err := postgres.Migrate(ctx, client.DB, migrations.FS); err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}
	log.Info("connected to postgres profile store")
	pg := store.NewPostgres(client.DB)
	return pg, pg.Health, func() { _ = client.Close() }, nil
}
