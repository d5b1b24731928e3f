package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/observ-ing/core-sub000/internal/cache"
	"github.com/observ-ing/core-sub000/internal/config"
	"github.com/observ-ing/core-sub000/internal/feed"
	"github.com/observ-ing/core-sub000/internal/handler"
	"github.com/observ-ing/core-sub000/internal/metrics"
	"github.com/observ-ing/core-sub000/internal/middleware"
	"github.com/observ-ing/core-sub000/internal/platform/otel"
	"github.com/observ-ing/core-sub000/internal/platform/redis"
	"github.com/observ-ing/core-sub000/internal/repo"
	"github.com/observ-ing/core-sub000/internal/service"
)

const serviceName = "occurrence-core"

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe wires every dependency and serves until ctx is cancelled, then
// gives in-flight requests up to 15 seconds to complete.
func runServe(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// --- Tracing ----------------------------------------------------------
	shutdownTracing, err := otel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracing shutdown", "error", err)
		}
	}()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("database connection established")

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// --- Consensus memo ---------------------------------------------------
	consensusCache, closeCache, err := newConsensusCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	// --- Services ---------------------------------------------------------
	occurrences := repo.NewOccurrenceRepo(pool)
	identifications := repo.NewIdentificationRepo(pool)
	follows := repo.NewFollowRepo(pool)

	engine := feed.NewEngine(
		feed.WithLogger(logger),
		feed.WithMetrics(metrics.NewFeed(reg)),
		feed.WithSourceTimeout(cfg.FeedSourceTimeout),
	)

	consensusSvc := service.NewConsensusService(occurrences, identifications, consensusCache, metrics.NewConsensus(reg))
	srv := handler.NewServer(
		service.NewOccurrenceService(occurrences),
		consensusSvc,
		service.NewIdentificationService(identifications, consensusSvc),
		service.NewFeedService(occurrences, follows, engine,
			service.WithLookback(cfg.FeedLookback),
			service.WithDefaultRadius(cfg.FeedDefaultRadiusMeters),
		),
	)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Metrics →
	// Recoverer → CORS → MaxBodySize.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetricsHandler(metrics.NewHTTP(reg)))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/", srv.Handler())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newConsensusCache returns the shared Redis cache when REDIS_URL is set and
// an in-process cache otherwise.
func newConsensusCache(ctx context.Context, cfg config.Config) (cache.ConsensusCache, func(), error) {
	client, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		slog.Info("consensus cache: in-process", "ttl", cfg.ConsensusCacheTTL)
		return cache.NewLocal(cfg.ConsensusCacheTTL), func() {}, nil
	}

	slog.Info("consensus cache: redis", "ttl", cfg.ConsensusCacheTTL)
	return cache.NewRedis(client, cfg.ConsensusCacheTTL), func() {
		if err := client.Close(); err != nil {
			slog.Warn("redis close", "error", err)
		}
	}, nil
}
