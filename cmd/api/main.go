package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cylestio/cylestio-local-mini-server/internal/app/migrate"
	"github.com/cylestio/cylestio-local-mini-server/internal/extract"
	httpx "github.com/cylestio/cylestio-local-mini-server/internal/http"
	"github.com/cylestio/cylestio-local-mini-server/internal/metrics"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository/postgres"
	"github.com/cylestio/cylestio-local-mini-server/internal/ws"
	"github.com/cylestio/cylestio-local-mini-server/pkg/config"
	"github.com/cylestio/cylestio-local-mini-server/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Status(ctx); err != nil {
		log.Warn("migration status unavailable", "error", err)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	registry := extract.DefaultRegistry()
	processor := extract.NewProcessor(registry, repo, log)
	calculators := metrics.DefaultRegistry()
	log.Info("pipeline configured",
		"extractors", registry.Names(),
		"calculators", calculators.Names())

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, processor, calculators, repo, repo, repo, hub, limiter, pool.Ping, httpx.Options{
		DefaultQueryRange: cfg.DefaultQueryRange,
		StreamHeartbeat:   cfg.StreamHeartbeat,
		IngestLimit:       cfg.IngestRateLimit,
		IngestWindow:      cfg.IngestRateWindow,
		QueryLimit:        cfg.QueryRateLimit,
		QueryWindow:       cfg.QueryRateWindow,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("telemetry api starting", "addr", cfg.Addr, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("telemetry api stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
