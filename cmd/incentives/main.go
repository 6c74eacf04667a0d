package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

type command struct {
	usage string
	run   func(ctx context.Context, env *environment, args []string) (any, error)
}

var commands = map[string]command{
	"ingest":          {usage: "ingest -file events.csv | -dir uploads/", run: runIngest},
	"cohorts":         {usage: "cohorts -file cohorts.xlsx", run: runCohorts},
	"roster":          {usage: "roster -file roster.csv", run: runRoster},
	"list-cohorts":    {usage: "list-cohorts", run: runListCohorts},
	"stats":           {usage: "stats", run: runStats},
	"create-user":     {usage: "create-user -picker-id ID -role picker|supervisor|admin [-password P] [-name N] [-cohort C]", run: runCreateUser},
	"reset-passwords": {usage: "reset-passwords", run: runResetPasswords},
	"dbcopy":          {usage: "dbcopy -from incentives.db [-batch 5000]", run: runDBCopy},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "incentives-cli", Output: os.Stderr})

	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "incentives-cli",
		Level:       logger.AtLevel(logger.ParseLevel(cfg.App.LogLevel)),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "command": name})

	env, err := bootstrap(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap", err)
		os.Exit(1)
	}

	out, runErr := cmd.run(ctx, env, os.Args[2:])
	if err := env.Close(); err != nil {
		logg.Error(ctx, "error closing resources", err)
	}
	if runErr != nil {
		logg.Error(ctx, "command failed", runErr)
		if pkgerrors.IsCode(runErr, pkgerrors.CodeValidation) || errors.Is(runErr, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logg.Error(ctx, "failed to write output", err)
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: incentives <command> [flags]")
	for _, name := range names {
		fmt.Fprintln(os.Stderr, "  "+commands[name].usage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "missing -%s", name)
	}
	return nil
}
