package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/db"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
	"github.com/warehouse-incentives/incentives-backend/pkg/migrate"
	"go.uber.org/multierr"
)

type options struct {
	cmd     string
	dir     string
	dialect string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|current|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (default: embedded for db commands, pkg/migrate/migrations for create, every dialect plus version parity for validate)")
	flag.StringVar(&opts.dialect, "dialect", "", "postgres|sqlite3 (default: the configured database)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	if err := run(ctx, opts, logg); err != nil {
		logg.Error(logg.WithField(ctx, "cmd", opts.cmd), "migrate failed", err)
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logg *logger.Logger) (err error) {
	switch opts.cmd {
	case "create":
		return create(opts)
	case "validate":
		return validate(opts)
	case "up", "down", "status", "current", "version":
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown -cmd %q", opts.cmd)
	}
	if opts.cmd == "version" && opts.version == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing -version")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.AtLevel(logger.ParseLevel(cfg.App.LogLevel)),
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { err = multierr.Append(err, client.Close()) }()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	dialect := opts.dialect
	if dialect == "" {
		dialect = client.Dialect()
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": opts.cmd, "dialect": dialect})
	logg.Info(ctx, "migrate ready")

	switch opts.cmd {
	case "current":
		v, err := migrate.Version(ctx, sqlDB, dialect)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "version":
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.dir, opts.version)
	default:
		return migrate.Run(ctx, sqlDB, dialect, opts.dir, opts.cmd)
	}
}

func create(opts options) error {
	if opts.name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing -name")
	}
	root := opts.dir
	if root == "" {
		root = migrate.DefaultDir
	}
	dialects := migrate.Dialects
	if opts.dialect != "" {
		dialects = []string{opts.dialect}
	}
	paths, err := migrate.CreateSQLMigrations(root, opts.name, dialects, time.Now())
	for _, path := range paths {
		fmt.Println("created migration:", path)
	}
	return err
}

func validate(opts options) error {
	var err error
	switch {
	case opts.dir != "":
		err = migrate.ValidateDir(opts.dir)
	case opts.dialect != "":
		err = migrate.ValidateDir(filepath.Join(migrate.DefaultDir, opts.dialect))
	default:
		err = migrate.ValidateTree(os.DirFS(migrate.DefaultDir), ".", migrate.Dialects)
	}
	if err != nil {
		return errors.Join(errors.New("migration validation failed"), err)
	}
	fmt.Println("migration validation passed")
	return nil
}
