package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/duebook/internal/adapter/http/handler"
	postgresRepo "github.com/iho/duebook/internal/adapter/repository/postgres"
	sqliteRepo "github.com/iho/duebook/internal/adapter/repository/sqlite"
	"github.com/iho/duebook/internal/infrastructure/config"
	"github.com/iho/duebook/internal/infrastructure/postgres"
	"github.com/iho/duebook/internal/infrastructure/sqlite"
	"github.com/iho/duebook/internal/usecase"
)

// store bundles the persistence wiring for one driver.
type store struct {
	txManager usecase.TransactionManager
	repo      usecase.ObligationRepository
	outbox    usecase.OutboxRepository
	retrier   usecase.Retrier
	check     handler.Check
	// publishes reports whether the outbox is durable and worth draining.
	publishes bool
	close     func()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store, error) {
	if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	repo := postgresRepo.NewObligationRepository(pool)

	return &store{
		txManager: postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout)),
		repo:      repo,
		outbox:    postgresRepo.NewOutboxRepository(pool),
		retrier:   postgresRepo.NewRetrier(logger),
		check:     handler.Check{Name: "postgres", Ping: repo.Ping},
		publishes: true,
		close:     pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store, error) {
	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")

	repo := sqliteRepo.NewObligationRepository(db)

	return &store{
		txManager: sqliteRepo.NewTxManager(db),
		repo:      repo,
		outbox:    postgresRepo.NewNullOutboxRepository(),
		retrier:   postgresRepo.NewRetrierFunc(logger, sqliteRepo.IsBusyError),
		check:     handler.Check{Name: "sqlite", Ping: repo.Ping},
		close: func() {
			if err := db.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close sqlite store")
			}
		},
	}, nil
}
