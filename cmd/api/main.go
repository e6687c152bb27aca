// Package main is the entry point for the DesignKit entitlement API server.
//
// It loads configuration, selects the usage counter backend (memory,
// postgres, or redis), builds the HTTP server with the core chassis, and
// runs the server and the counter compactor until a shutdown signal arrives.
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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"designkit/internal/api/handlers"
	"designkit/internal/config"
	"designkit/internal/core"
	"designkit/internal/db"
	"designkit/internal/entitlement"
	"designkit/internal/external"
	"designkit/internal/maintenance"
	"designkit/internal/plan"
	"designkit/internal/usage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("designkit entitlement API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"usage_backend", cfg.Usage.Backend,
	)

	loc, err := time.LoadLocation(cfg.Usage.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Usage.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Select the counter backend and, for postgres, the shared pool that
	// also serves the user and project repositories.
	var (
		counterStore usage.CounterStore
		pool         *pgxpool.Pool
		probes       []core.HealthProbe
	)
	switch cfg.Usage.Backend {
	case "postgres":
		pool, err = db.NewPool(ctx, db.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		counterStore = db.NewCounterStore(pool)
		probes = append(probes, core.ProbeFunc{ProbeName: "database", Fn: pool.Ping})

	case "redis":
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parsing redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		counterStore = usage.NewRedisStore(client)
		probes = append(probes, core.ProbeFunc{ProbeName: "redis", Fn: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})

	default:
		counterStore = usage.NewMemStore()
	}

	// A database is optional outside the postgres backend; without one the
	// service runs with anonymous callers and in-memory projects.
	if pool == nil && cfg.Database.URL != "" {
		pool, err = db.NewPool(ctx, db.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		probes = append(probes, core.ProbeFunc{ProbeName: "database", Fn: pool.Ping})
	}

	// Domain wiring.
	registry := plan.NewStaticRegistry()
	resolver := plan.NewResolver(cfg.Usage.DeveloperEmail)
	evaluator := entitlement.NewEvaluator(registry, resolver)
	usageSvc := usage.NewService(counterStore, logger, usage.WithLocation(loc))

	var (
		users    core.UserSource
		projects handlers.ProjectStore
	)
	if pool != nil {
		users = db.NewUserRepo(pool)
		projects = db.NewProjectRepo(pool)
	} else {
		logger.Warn("no database configured; projects are in-memory and all callers are anonymous")
		projects = newMemProjectStore()
	}

	// HTTP chassis.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Users = users
	srv.HealthProbes = probes

	entitlementHandler := handlers.NewEntitlementHandler(
		evaluator, usageSvc, registry, resolver, projects, logger,
		handlers.WithLocation(loc),
	)
	actionHandler := handlers.NewActionHandler(evaluator, usageSvc, projects, srv.Validator, logger)

	var webhookHandler *handlers.StripeWebhookHandler
	if cfg.BillingEnabled() && pool != nil {
		stripeClient := external.NewStripeClient(external.StripeClientConfig{
			SecretKey: cfg.Billing.StripeSecretKey,
			Logger:    logger,
		})
		webhookHandler = handlers.NewStripeWebhookHandler(
			&external.StripeVerifier{},
			db.NewUserRepo(pool),
			stripeClient,
			external.NewPlanMapper(cfg.Billing.PriceStarter, cfg.Billing.PricePro),
			cfg.Billing.StripeWebhookSecret,
			logger,
		)
	}

	srv.MountRoutes(func(r chi.Router) {
		entitlementHandler.RegisterRoutes(r)
		actionHandler.RegisterRoutes(r)
		if webhookHandler != nil {
			webhookHandler.RegisterRoutes(r)
		}
	})

	compactor := maintenance.NewCompactor(
		usageSvc,
		cfg.Usage.CompactionInterval,
		cfg.Usage.RetentionDays,
		logger,
	)

	return serve(ctx, srv, compactor, cfg, logger)
}

// serve runs the HTTP server and the compactor until the context is
// canceled, then shuts both down gracefully.
func serve(
	ctx context.Context,
	srv *core.Server,
	compactor *maintenance.Compactor,
	cfg *config.Config,
	logger *slog.Logger,
) error {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := compactor.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server resource shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a JSON structured logger at the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
