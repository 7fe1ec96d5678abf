package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/duebook/internal/adapter/http"
	"github.com/iho/duebook/internal/adapter/http/handler"
	"github.com/iho/duebook/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/duebook/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/duebook/internal/adapter/repository/redis"
	"github.com/iho/duebook/internal/infrastructure/config"
	"github.com/iho/duebook/internal/infrastructure/eventpublisher"
	"github.com/iho/duebook/internal/infrastructure/logger"
	"github.com/iho/duebook/internal/infrastructure/metrics"
	"github.com/iho/duebook/internal/infrastructure/redis"
	"github.com/iho/duebook/internal/usecase"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "duebook",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal().Err(err).Msg("server failed")
	}

	l.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *goredis.Client
	if cfg.CacheEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, redis.WithPoolSize(cfg.RedisPoolSize))
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")
	}

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	app := newApp(cfg, st, redisClient, metrics.NewRegistry(), logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if st.publishes {
		worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: st.outbox,
			Publisher:  publisher,
			Metrics:    app.metrics,
			Logger:     logger,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		g.Go(func() error {
			if err := worker.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if app.rateLimiter != nil {
		g.Go(func() error {
			sweepLimiters(gctx, app.rateLimiter, cfg.RateLimitIdleTTL)
			return nil
		})
	}

	return g.Wait()
}

// app is the assembled HTTP surface.
type app struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	metrics     *metrics.Metrics
}

// newApp wires the use cases and router. A nil registry disables metrics.
func newApp(cfg *config.Config, st *store, redisClient *goredis.Client, reg *prometheus.Registry, logger zerolog.Logger) *app {
	var (
		m           *metrics.Metrics
		httpMetrics *middleware.HTTPMetrics
		metricsView http.Handler
	)
	if reg != nil {
		m = metrics.New(reg)
		httpMetrics = middleware.NewHTTPMetrics(reg)
		metricsView = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	checks := []handler.Check{st.check}
	if redisClient != nil {
		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		checks = append(checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redis.Ping(ctx, redisClient) },
		})
	}

	idGen := postgresRepo.NewULIDGenerator()
	snapshots := usecase.NewSnapshots(st.repo, cache, cfg.CacheTTL, m, logger)

	obligationUC := usecase.NewObligationUseCase(st.txManager, st.repo, st.outbox, snapshots, st.retrier, idGen, m, logger)
	settlementUC := usecase.NewSettlementUseCase(st.txManager, st.repo, st.outbox, snapshots, st.retrier, idGen, m, logger)

	var rl *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rl = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		OccurrenceHandler: handler.NewOccurrenceHandler(obligationUC, settlementUC),
		ObligationHandler: handler.NewObligationHandler(obligationUC),
		HealthHandler:     handler.NewHealthHandler(checks...),
		IdempotencyStore:  idempotencyStore,
		IdempotencyTTL:    cfg.IdempotencyTTL,
		RateLimiter:       rl,
		Logger:            logger,
		Metrics:           httpMetrics,
		MetricsHandler:    metricsView,
	})

	return &app{handler: router, rateLimiter: rl, metrics: m}
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		logger.Info().Msg("AMQP disabled - outbox events will be logged")
		return eventpublisher.NewLogPublisher(logger), func() {}, nil
	}

	p, err := eventpublisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	logger.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to AMQP")

	return p, func() {
		if err := p.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close AMQP publisher")
		}
	}, nil
}

func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}

	ticker := time.NewTicker(maxIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(maxIdle)
		}
	}
}
