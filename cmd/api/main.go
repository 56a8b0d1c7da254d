// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the CRM HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire repositories, services, the gate and HTTP handlers.
//  7. Start the session purge sweeper.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/crm/internal/api"
	"github.com/taibuivan/crm/internal/platform/clock"
	"github.com/taibuivan/crm/internal/platform/config"
	"github.com/taibuivan/crm/internal/platform/constants"
	"github.com/taibuivan/crm/internal/platform/metrics"
	"github.com/taibuivan/crm/internal/platform/migration"
	pgstore "github.com/taibuivan/crm/internal/platform/postgres"
	redisstore "github.com/taibuivan/crm/internal/platform/redis"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/internal/users/auth"
	"github.com/taibuivan/crm/internal/users/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("secure_cookies", cfg.SecureCookies()),
		slog.Duration("session_purge_interval", cfg.SessionPurgeInterval),
	)

	// Root context for background workers; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly rather than hanging.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("postgres_pool_closing")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("redis_client_closing")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(startupCtx, cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	systemClock := clock.System{}
	collectors := metrics.New(prometheus.DefaultRegisterer)

	auditService := audit.NewService(audit.NewPostgresRepository(pool), systemClock)
	recorder := audit.NewRecorder(auditService, collectors)

	accountRepository := account.NewPostgresRepository(pool)
	accountService := account.NewService(accountRepository, auditService, systemClock)

	sessionStore := session.NewStore(session.NewPostgresRepository(pool), systemClock)
	gate := auth.NewGate(sessionStore, recorder, collectors)

	authService := auth.NewService(auth.NewCredentialService(accountRepository), sessionStore, recorder, collectors)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(prometheus.DefaultGatherer),
		Auth:      auth.NewHandler(authService, cfg.SecureCookies()),
		Account:   account.NewHandler(accountService),
		Audit:     audit.NewHandler(auditService),
	}

	server := api.NewServer(rootCtx, cfg, log, gate, handlers)

	// ── 7. Session Sweeper ────────────────────────────────────────────────
	sweeper := session.NewSweeper(sessionStore, redisstore.NewLocker(rdb), cfg.SessionPurgeInterval, collectors, log)

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		sweeper.Run(rootCtx)
	}()

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	exitCode := 0
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_failed", slog.Any("error", err))
		exitCode = 1
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		exitCode = 1
	}

	rootCancel()
	workers.Wait()

	log.Info("server_stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String(constants.FieldApp, constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
