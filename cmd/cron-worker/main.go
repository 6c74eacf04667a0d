package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/warehouse-incentives/incentives-backend/internal/cron"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/pickers"
	"github.com/warehouse-incentives/incentives-backend/internal/users"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/db"
	"github.com/warehouse-incentives/incentives-backend/pkg/instance"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"github.com/warehouse-incentives/incentives-backend/pkg/metrics"
	"github.com/warehouse-incentives/incentives-backend/pkg/migrate"
	"github.com/warehouse-incentives/incentives-backend/pkg/redis"
)

const lockName = "cron-worker:csv-folder"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.AtLevel(logger.ParseLevel(cfg.App.LogLevel)),
		WarnStack:   cfg.App.LogWarnStack,
	})

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid timezone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	userRepo := users.NewRepository(dbClient.DB())
	pickerService, err := pickers.NewService(pickers.ServiceParams{
		DB:             dbClient,
		Users:          userRepo,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create picker service", err)
		os.Exit(1)
	}

	itemsService, err := items.NewService(items.ServiceParams{
		Repo:        items.NewRepository(dbClient.DB()),
		Pickers:     pickerService,
		Users:       userRepo,
		Generations: redisClient,
		Location:    loc,
		BatchSize:   cfg.Ingest.BatchSize,
		Logger:      logg,
		Metrics:     metrics.NewIngestMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create items service", err)
		os.Exit(1)
	}

	folderJob, err := cron.NewCSVFolderJob(cron.CSVFolderJobParams{
		Logger:   logg,
		Ingester: itemsService,
		Dir:      cfg.Ingest.UploadDir,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create folder job", err)
		os.Exit(1)
	}

	// The lock outlives one poll so a slow pass is never run twice.
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), 3*cfg.Ingest.PollInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(folderJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Ingest.PollInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"instance":   instance.GetID(),
		"upload_dir": cfg.Ingest.UploadDir,
		"interval":   cfg.Ingest.PollInterval.String(),
		"jobs":       registry.Names(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
