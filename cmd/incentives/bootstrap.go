package main

import (
	"context"
	"fmt"
	"time"

	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/pickers"
	"github.com/warehouse-incentives/incentives-backend/internal/users"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/db"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"github.com/warehouse-incentives/incentives-backend/pkg/migrate"
	"github.com/warehouse-incentives/incentives-backend/pkg/redis"
	"go.uber.org/multierr"
)

type environment struct {
	cfg     *config.Config
	logg    *logger.Logger
	db      *db.Client
	redis   *redis.Client
	users   *users.Repository
	pickers pickers.Service
	items   items.Service
}

func bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*environment, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	env := &environment{cfg: cfg, logg: logg, db: dbClient, users: users.NewRepository(dbClient.DB())}

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return nil, multierr.Append(fmt.Errorf("migrations: %w", err), env.Close())
	}

	// Without Redis the CLI still works; cached rankings then expire on their TTL.
	redisCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if client, err := redis.New(redisCtx, cfg.Redis, logg); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, ranking cache will not be invalidated")
	} else {
		env.redis = client
	}

	env.pickers, err = pickers.NewService(pickers.ServiceParams{
		DB:             dbClient,
		Users:          env.users,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return nil, multierr.Append(err, env.Close())
	}

	params := items.ServiceParams{
		Repo:      items.NewRepository(dbClient.DB()),
		Pickers:   env.pickers,
		Users:     env.users,
		Location:  loc,
		BatchSize: cfg.Ingest.BatchSize,
		Logger:    logg,
	}
	if env.redis != nil {
		params.Generations = env.redis
	}
	env.items, err = items.NewService(params)
	if err != nil {
		return nil, multierr.Append(err, env.Close())
	}
	return env, nil
}

func (e *environment) Close() error {
	var err error
	if e.redis != nil {
		err = multierr.Append(err, e.redis.Close())
	}
	if e.db != nil {
		err = multierr.Append(err, e.db.Close())
	}
	return err
}
