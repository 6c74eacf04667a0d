package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/warehouse-incentives/incentives-backend/internal/dbcopy"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/pickers"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/db"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/migrate"
	"go.uber.org/multierr"
)

func runIngest(ctx context.Context, env *environment, args []string) (any, error) {
	fs := newFlagSet("ingest")
	file := fs.String("file", "", "event csv to ingest")
	dir := fs.String("dir", "", "folder whose unprocessed *.csv files are ingested")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			return nil, err
		}
		return env.items.Ingest(ctx, filepath.Base(*file), data, items.SourceCLI)
	case *dir != "":
		return env.items.IngestDir(ctx, *dir, items.SourceCLI)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one of -file or -dir is required")
	}
}

func runCohorts(ctx context.Context, env *environment, args []string) (any, error) {
	name, data, err := readFileFlag("cohorts", args)
	if err != nil {
		return nil, err
	}
	return env.pickers.ImportCohorts(ctx, name, data)
}

func runRoster(ctx context.Context, env *environment, args []string) (any, error) {
	name, data, err := readFileFlag("roster", args)
	if err != nil {
		return nil, err
	}
	return env.pickers.ImportRoster(ctx, name, data)
}

func readFileFlag(command string, args []string) (string, []byte, error) {
	fs := newFlagSet(command)
	file := fs.String("file", "", "csv or xlsx sheet")
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if err := requireFlag("file", *file); err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(*file), data, nil
}

func runListCohorts(ctx context.Context, env *environment, _ []string) (any, error) {
	summary, err := env.pickers.CohortSummary(ctx)
	if err != nil {
		return nil, err
	}
	members, err := env.pickers.ListCohortMembers(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"cohorts": summary, "members": members}, nil
}

func runStats(ctx context.Context, env *environment, _ []string) (any, error) {
	return env.items.Stats(ctx)
}

func runCreateUser(ctx context.Context, env *environment, args []string) (any, error) {
	fs := newFlagSet("create-user")
	pickerID := fs.String("picker-id", "", "login id")
	role := fs.String("role", string(enums.RolePicker), "picker|supervisor|admin")
	password := fs.String("password", "", "initial password (generated when empty)")
	name := fs.String("name", "", "display name")
	cohort := fs.Int("cohort", 0, "cohort number (0 for none)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := requireFlag("picker-id", *pickerID); err != nil {
		return nil, err
	}

	parsed, err := enums.ParseRole(*role)
	if err != nil {
		return nil, err
	}
	input := pickers.CreateUserInput{PickerID: *pickerID, Password: *password, Role: parsed}
	if *name != "" {
		input.Name = name
	}
	if *cohort > 0 {
		input.Cohort = cohort
	}
	return env.pickers.CreateUser(ctx, input)
}

func runResetPasswords(ctx context.Context, env *environment, _ []string) (any, error) {
	n, err := env.pickers.ResetPickerPasswords(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{"updated": n}, nil
}

// runDBCopy replaces the configured database's contents with those of a
// local sqlite file.
func runDBCopy(ctx context.Context, env *environment, args []string) (out any, err error) {
	fs := newFlagSet("dbcopy")
	from := fs.String("from", "incentives.db", "source sqlite file")
	batch := fs.Int("batch", 0, "rows per insert batch")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if env.db.IsSQLite() {
		return nil, fmt.Errorf("target database is sqlite; configure %s=postgres", config.EnvDBDriver)
	}
	if _, err := os.Stat(*from); err != nil {
		return nil, err
	}

	source, err := db.New(ctx, config.DBConfig{Driver: config.DriverSQLite, SQLitePath: *from}, env.logg)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer func() {
		err = multierr.Append(err, source.Close())
	}()

	sqlDB, err := env.db.DB().DB()
	if err != nil {
		return nil, err
	}
	if err := migrate.Run(ctx, sqlDB, env.db.Dialect(), "", "up"); err != nil {
		return nil, fmt.Errorf("migrate target: %w", err)
	}

	copier, err := dbcopy.New(dbcopy.Params{
		Source:    source.DB(),
		Target:    env.db.DB(),
		BatchSize: *batch,
		Logger:    env.logg,
	})
	if err != nil {
		return nil, err
	}
	result, err := copier.Copy(ctx)
	if err != nil {
		return nil, err
	}
	if env.redis != nil {
		if _, err := env.redis.BumpRankingGeneration(ctx); err != nil {
			env.logg.Warn(ctx, "failed to invalidate ranking cache")
		}
	}
	return result, nil
}
