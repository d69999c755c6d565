package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	userfields "github.com/goliatone/go-userfields"
	"github.com/goliatone/go-userfields/internal/config"
	"github.com/goliatone/go-userfields/internal/database"
	"github.com/goliatone/go-userfields/internal/logging"
	"github.com/goliatone/go-userfields/internal/store"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *runtime, args []string) error
}

var commands = []command{
	{"serve", "run the HTTP server", runServe},
	{"edit", "edit the global field list in the terminal", runEdit},
	{"export", "write a field list as YAML", runExport},
	{"import", "replace the global field list from YAML", runImport},
	{"render", "print the booking form HTML for a calendar", runRender},
	{"schema", "print the OpenAPI document for a calendar's booking endpoint", runSchema},
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "userfields: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("userfields", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "userfields.yaml", "YAML configuration file")
	global.Usage = func() {
		fmt.Fprintf(global.Output(), "Usage: %s [-config file] <command> [flags]\n\nCommands:\n", filepath.Base(os.Args[0]))
		for _, c := range commands {
			fmt.Fprintf(global.Output(), "  %-8s %s\n", c.name, c.usage)
		}
	}
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	name := global.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		global.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.close()
	env.stdin, env.stdout, env.stderr = stdin, stdout, stderr

	return cmd.run(ctx, env, global.Args()[1:])
}

// runtime carries what every command needs.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sql.DB
	store  *store.Store
	svc    *userfields.Service

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func openRuntime(ctx context.Context, cfg config.Config, logger *zap.Logger) (*runtime, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	st := store.New(db)

	svc, err := userfields.New(st, serviceConfig(cfg, logger))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, db: db, store: st, svc: svc}, nil
}

func serviceConfig(cfg config.Config, logger *zap.Logger) userfields.Config {
	return userfields.Config{
		OptionName:    cfg.Fields.OptionName,
		OverrideKey:   cfg.Fields.OverrideKey,
		SubmissionKey: cfg.Fields.SubmissionKey,
		Defaults:      cfg.Fields.Defaults,
		Renderer:      cfg.Fields.Renderer,
		Locale:        cfg.Fields.Locale,
		Logger:        logger,
	}
}

func (r *runtime) close() {
	if err := r.db.Close(); err != nil {
		r.logger.Warn("close database", zap.Error(err))
	}
}
