package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schema_migrator/internal/config"
	"schema_migrator/internal/logging"
	"schema_migrator/internal/migrate"
	"schema_migrator/internal/server"

	// Generated migration files register themselves at init time.
	_ "schema_migrator/migrations"
)

// errFailed means the operation already reported its reason through the
// logger; main only needs the exit code.
var errFailed = errors.New("operation did not complete")

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init-config":
		err = initConfigCmd(args)
	case "revision":
		err = revisionCmd(args)
	case "create":
		err = createCmd(args)
	case "upgrade":
		err = upgradeCmd(args)
	case "downgrade":
		err = downgradeCmd(args)
	case "status":
		err = statusCmd(args)
	case "delete":
		err = deleteCmd(args)
	case "info":
		err = infoCmd(args)
	case "serve":
		err = serveCmd(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`migrator commands:
  init-config - write a starter config.yaml
  revision    - generate a blank migration file
  create      - generate a migration from an existing database table
  upgrade     - apply pending migrations (all, or through -target)
  downgrade   - revert applied migrations (one step, or through -target)
  status      - show applied/pending state per migration
  delete      - remove a migration file and its history record
  info        - show driver and database identity
  serve       - run the read-only diagnostics API

Flags are command specific; run "<cmd> -h" for details.`)
}

func initConfigCmd(args []string) error {
	fs := flagSet("init-config")
	path := fs.String("path", config.DefaultPath, "where to write the starter config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(*path); err == nil {
		return fmt.Errorf("%s already exists", *path)
	}
	if err := os.WriteFile(*path, []byte(config.Sample()), 0o644); err != nil {
		return err
	}
	fmt.Println("starter config written to", *path)
	return nil
}

func revisionCmd(args []string) error {
	fs := flagSet("revision")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	name := fs.String("name", "", "migration name (default \"auto migration\")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withRepository(*configPath, 30*time.Second, func(ctx context.Context, repo *migrate.Repository) bool {
		return repo.Revision(*name)
	})
}

func createCmd(args []string) error {
	fs := flagSet("create")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	table := fs.String("table", "", "existing database table to generate a migration for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" {
		return fmt.Errorf("-table is required")
	}
	return withRepository(*configPath, 30*time.Second, func(ctx context.Context, repo *migrate.Repository) bool {
		return repo.CreateFromDatabase(ctx, *table)
	})
}

func upgradeCmd(args []string) error {
	fs := flagSet("upgrade")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	target := fs.String("target", "", "stop after this migration (name or prefix)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withRepository(*configPath, 2*time.Minute, func(ctx context.Context, repo *migrate.Repository) bool {
		return repo.Upgrade(ctx, *target)
	})
}

func downgradeCmd(args []string) error {
	fs := flagSet("downgrade")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	target := fs.String("target", "", "revert down through this migration (name or prefix)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withRepository(*configPath, 2*time.Minute, func(ctx context.Context, repo *migrate.Repository) bool {
		return repo.Downgrade(ctx, *target)
	})
}

func statusCmd(args []string) error {
	fs := flagSet("status")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withRepository(*configPath, 30*time.Second, func(ctx context.Context, repo *migrate.Repository) bool {
		return repo.Status(ctx)
	})
}

func deleteCmd(args []string) error {
	fs := flagSet("delete")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	target := fs.String("target", "", "migration to delete (name or prefix)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		return fmt.Errorf("-target is required")
	}
	return withRepository(*configPath, 30*time.Second, func(ctx context.Context, repo *migrate.Repository) bool {
		return repo.Delete(ctx, *target)
	})
}

func infoCmd(args []string) error {
	fs := flagSet("info")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withRepository(*configPath, 30*time.Second, func(ctx context.Context, repo *migrate.Repository) bool {
		repo.Info()
		return true
	})
}

func serveCmd(args []string) error {
	fs := flagSet("serve")
	configPath := fs.String("config", config.DefaultPath, "path to config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.HTTPAddress = *addr
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	repo, err := migrate.NewRepository(openCtx, cfg.Source(), migrate.Options{
		HistoryTable: cfg.HistoryTable,
		Directory:    cfg.Directory,
		Reporter:     logger,
	})
	cancel()
	if err != nil {
		return err
	}
	defer repo.Close()

	return server.New(cfg.HTTPAddress, repo, logger).Start(ctx)
}

// withRepository loads the config, opens the repository against the
// configured database, runs the operation under a deadline and maps the
// bool result to the process exit code.
func withRepository(configPath string, timeout time.Duration, fn func(ctx context.Context, repo *migrate.Repository) bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	repo, err := migrate.NewRepository(ctx, cfg.Source(), migrate.Options{
		HistoryTable: cfg.HistoryTable,
		Directory:    cfg.Directory,
		Reporter:     logger,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	if !fn(ctx, repo) {
		return errFailed
	}
	return nil
}

func flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	return fs
}
