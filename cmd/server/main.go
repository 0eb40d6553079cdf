package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	analyzerhandler "ledgertrace/internal/analyzer/handler"
	analyzerservice "ledgertrace/internal/analyzer/service"
	"ledgertrace/internal/auth"
	exporthandler "ledgertrace/internal/export/handler"
	exportservice "ledgertrace/internal/export/service"
	httpapi "ledgertrace/internal/http"
	"ledgertrace/internal/platform/config"
	"ledgertrace/internal/platform/httpserver"
	"ledgertrace/internal/platform/logger"
	"ledgertrace/internal/platform/metrics"
	"ledgertrace/internal/platform/redis"
	"ledgertrace/internal/ratelimit"
	reporthandler "ledgertrace/internal/report/handler"
	"ledgertrace/internal/report/store"
	tracehandler "ledgertrace/internal/trace/handler"
	tracemetrics "ledgertrace/internal/trace/metrics"
	"ledgertrace/internal/trace/registry"
	traceservice "ledgertrace/internal/trace/service"
	"ledgertrace/pkg/platform/circuit"
)

// main wires dependencies and owns the server lifecycle. Redis and Postgres
// are optional: without them the rate limiter and report archive fall back
// to in-memory stores.
func main() {
	cfg := config.FromEnv()
	log := logger.New(!cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httpapi.HealthChecker{}

	// Rate limit store.
	var limitStore ratelimit.Store
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable, using in-memory rate limits", "error", err)
	}
	if redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient)
		checks["redis"] = redisClient
		defer redisClient.Close()
	} else {
		limitStore = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.NewMiddleware(limitStore, cfg.RateLimit.Window, log)

	// Report archive.
	var archive store.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres unavailable, using in-memory report archive", "error", err)
			archive = store.NewMemory()
		} else {
			defer pool.Close()
			archive = store.NewPostgres(pool)
			checks["postgres"] = poolChecker{pool}
		}
	} else {
		archive = store.NewMemory()
	}

	// Trace pipeline. The Sunbiz client sits behind a circuit breaker so a
	// registry outage fails crawls fast instead of tying up worker slots.
	sunbiz := registry.NewSunbizClient(registry.SunbizOptions{
		BaseURL:          cfg.Registry.BaseURL,
		RequestTimeout:   cfg.Registry.RequestTimeout,
		MaxResponseBytes: cfg.Registry.MaxResponseBytes,
		Logger:           log,
	})
	source := registry.Guard(sunbiz, circuit.New("sunbiz"), log)
	traceSvc := traceservice.New(source, cfg,
		traceservice.WithLogger(log),
		traceservice.WithMetrics(tracemetrics.New()),
		traceservice.WithArchive(archive),
	)

	analyzerSvc := analyzerservice.New(traceSvc,
		analyzerservice.WithLogger(log),
		analyzerservice.WithArchive(archive),
	)

	exportSvc, err := exportservice.New(analyzerSvc, cfg.Export.Dir, exportservice.WithLogger(log))
	if err != nil {
		log.Error("export service init failed", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenService(cfg.JWTSigningKey)

	router := httpapi.NewRouter(httpapi.Deps{
		Cfg:      cfg,
		Logger:   log,
		Metrics:  metrics.New(),
		Limiter:  limiter,
		Auth:     tokens,
		Trace:    tracehandler.New(traceSvc, log),
		Analyzer: analyzerhandler.New(analyzerSvc, log),
		Export:   exporthandler.New(exportSvc, log),
		Reports:  reporthandler.New(archive, log),
		Checks:   checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// poolChecker adapts a pgx pool to the router's health check interface.
type poolChecker struct {
	pool *pgxpool.Pool
}

func (p poolChecker) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
