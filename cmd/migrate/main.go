package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/handcar/handcar-backend/pkg/config"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/migrate"
)

const usage = `usage: migrate -cmd <up|down|status|version|create|validate> [flags]

  up        apply pending migrations
  down      roll back the latest migration
  status    list applied and pending migrations
  version   migrate up or down to -version
  create    write an empty migration named -name into -dir
  validate  check migration file names and goose sections (no database)

Use -dir "" to run the migrations embedded in the binary.
`

func main() {
	cmd := flag.String("cmd", "up", "migration command")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := offline(*cmd, *dir, *name); !errors.Is(err, errNeedsDB) {
		exitOn(err)
		return
	}

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	if cfg.DB.Driver == config.DBDriverSQLite {
		logg.Warn(ctx, "goose migrations target postgres; sqlite databases are built by HANDCAR_DB_AUTO_MIGRATE")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to extract sql.DB", err)
		os.Exit(1)
	}
	runner, err := migrate.NewRunner(sqlDB, migrate.Dir(*dir), os.Stdout)
	if err != nil {
		logg.Error(ctx, "failed to load migrations", err)
		os.Exit(1)
	}

	switch *cmd {
	case "up":
		var applied int
		applied, err = runner.Up(ctx)
		if err == nil {
			logg.Info(logg.WithField(ctx, "applied", applied), "migrations applied")
		}
	case "down":
		err = runner.Down(ctx)
	case "status":
		err = runner.Status(ctx)
	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(2)
		}
		err = runner.MigrateTo(ctx, *version)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
		dbClient.Close()
		os.Exit(1)
	}
}

var errNeedsDB = errors.New("command needs a database")

// offline handles the commands that only touch files.
func offline(cmd, dir, name string) error {
	switch cmd {
	case "create":
		if name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(dir, name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.Validate(migrate.Dir(dir)); err != nil {
			return fmt.Errorf("migration validation failed:\n%w", err)
		}
		fmt.Println("migration validation passed")
		return nil
	}
	return errNeedsDB
}

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
