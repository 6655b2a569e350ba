package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/zauberjournal/journal-api/pkg/config"
	"github.com/zauberjournal/journal-api/pkg/db"
	"github.com/zauberjournal/journal-api/pkg/logger"
	"github.com/zauberjournal/journal-api/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

// fileCommands never open a database connection.
var fileCommands = map[string]func(opts options, out io.Writer) error{
	"list": func(opts options, out io.Writer) error {
		files, err := migrate.ListDir(opts.dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "%d  %s\n", f.Version, f.Slug)
		}
		return nil
	},
	"create": func(opts options, out io.Writer) error {
		if opts.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "created migration:", path)
		return nil
	},
	"validate": func(opts options, out io.Writer) error {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Fprintln(out, "migration validation passed")
		return nil
	},
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|list")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version, 0 resets")
	flag.Parse()

	if fn, ok := fileCommands[opts.cmd]; ok {
		if err := fn(opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env},
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": opts.cmd, "dir": opts.dir})

	if err := runAgainstDB(ctx, cfg, logg, opts); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

func runAgainstDB(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) error {
	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg.Named("db"))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}

	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, client.Dialect(), opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, client.Dialect(), opts.dir, opts.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}
