// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

// Command portal is the entry point for the SIGEPSI evaluation portal.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load .env overrides and configuration from environment variables.
//  3. Connect to Redis (persisted session tokens).
//  4. Wire the session hub against the records backend.
//  5. Wire views, proxy handlers, and health probes.
//  6. Start HTTP server with graceful shutdown.
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
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sigepsi/portal/internal/auth"
	"github.com/sigepsi/portal/internal/fichas"
	"github.com/sigepsi/portal/internal/platform/config"
	"github.com/sigepsi/portal/internal/platform/constants"
	"github.com/sigepsi/portal/internal/platform/middleware"
	redisstore "github.com/sigepsi/portal/internal/platform/redis"
	"github.com/sigepsi/portal/internal/portal"
	"github.com/sigepsi/portal/internal/reportes"
	"github.com/sigepsi/portal/internal/usuarios"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[SIGEPSI] portal_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("gateway", cfg.GatewayBaseURL),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Session Hub ────────────────────────────────────────────────────
	hub := auth.NewHub(cfg.GatewayBaseURL,
		func(sessionID string) auth.TokenStore {
			return auth.NewRedisStore(rdb, sessionID, log)
		},
		nil, log)
	defer hub.Close()

	middleware.ActiveSessionsGauge(prometheus.DefaultRegisterer, hub.Count)

	// ── 5. Health handlers (wired with real dependency checkers) ──────────
	gatewayProbe := &http.Client{Timeout: 5 * time.Second}
	liveness, readiness := portal.NewHealthHandlers(portal.HealthDependencies{
		CheckTokenStore: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckGateway: func() error {
			response, err := gatewayProbe.Get(cfg.GatewayBaseURL + "/auth/validate-token")
			if err != nil {
				return err
			}
			response.Body.Close()
			return nil
		},
	}, log)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	handlers := portal.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Views:     portal.NewViewHandler(),
		Fichas:    fichas.NewHandler(fichas.NewService(cfg.GatewayBaseURL)),
		Usuarios:  usuarios.NewHandler(usuarios.NewService(cfg.GatewayBaseURL)),
		Reportes:  reportes.NewHandler(reportes.NewService(cfg.GatewayBaseURL)),
	}

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := portal.NewServer(serverCtx, cfg, log, hub, handlers)

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
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
