// Command portal-admin runs one-off maintenance tasks against the portal's
// directory database and token store.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PoojaS1511/Updated-CMS-sub000/config"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/bootstrap"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/devseed"
)

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultLookupTimeout    = 30 * time.Second
)

// commandContext is what every subcommand receives. Ctx ends on SIGINT or SIGTERM.
type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

type command struct {
	name        string
	description string
	run         func(cmdCtx *commandContext, args []string) error
}

// commands is kept in the order usage lists them.
func commands() []command {
	return []command{
		{"clear-token", "Delete the persisted access token so the next start is signed out", runClearToken},
		{"db-seed", "Run database migrations and seed the demo faculty and student directory", runDBSeed},
		{"migrate", "Run database migrations", runMigrations},
		{"whoami", "Resolve the portal identity for a subject and email", runWhoAmI},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands() {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func main() {
	os.Exit(run(os.Args[1:])) //nolint:forbidigo // exit status is the CLI contract
}

// run returns the process exit code: 2 for usage errors, 1 for failures.
func run(args []string) int {
	if len(args) == 0 {
		_ = printUsage(os.Stderr)
		return 2
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		_ = writef(os.Stderr, "unknown command %q\n\n", args[0])
		_ = printUsage(os.Stderr)
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}
	logger := bootstrap.InitLogger(cfg.Observability.LogLevel, cfg.IsDev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Config: cfg, Out: os.Stdout, ErrOut: os.Stderr, In: os.Stdin}
	if err := cmd.run(cmdCtx, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		logger.ErrorContext(ctx, "command failed", "command", cmd.name, "error", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: portal-admin <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(w, "  %-16s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

// newFlagSet returns a flag set with a positive --timeout bound to timeout.
// Callers register their own flags before calling parse.
func newFlagSet(name string, timeout *time.Duration, def time.Duration, what string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.DurationVar(timeout, "timeout", def, "Maximum duration to wait for "+what)
	return fs
}

func parseWithTimeout(fs *flag.FlagSet, args []string, timeout *time.Duration) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	var opts migrateOptions
	fs := newFlagSet("migrate", &opts.Timeout, defaultMigrationTimeout, "migrations to complete")
	if err := parseWithTimeout(fs, args, &opts.Timeout); err != nil {
		return migrateOptions{}, err
	}
	return opts, nil
}

type dbSeedOptions struct {
	Timeout     time.Duration
	AllowRemote bool
}

func parseDBSeedFlags(args []string) (dbSeedOptions, error) {
	var opts dbSeedOptions
	fs := newFlagSet("db-seed", &opts.Timeout, defaultMigrationTimeout, "seeding to complete")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit running against database hosts that do not look local")
	if err := parseWithTimeout(fs, args, &opts.Timeout); err != nil {
		return dbSeedOptions{}, err
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	})
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}
	host := cmdCtx.Config.Postgres.Host
	if err := confirmRemoteHost(cmdCtx, host, opts.AllowRemote, "seed demo directory rows"); err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
			return err
		}
		if err := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); err != nil {
			return fmt.Errorf("seed directory: %w", err)
		}
		cmdCtx.Logger.Info("directory seeded", "host", host)
		return nil
	})
}

// withDatabase opens the configured database for the duration of f.
func withDatabase(cmdCtx *commandContext, timeout time.Duration, f func(context.Context, *sql.DB) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cmdCtx.Config.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()
	return f(ctx, db)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
