package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/sectors/internal/api"
	"github.com/alexanderramin/sectors/internal/cli"
	"github.com/alexanderramin/sectors/internal/config"
	"github.com/alexanderramin/sectors/internal/db"
	"github.com/alexanderramin/sectors/internal/form"
	"github.com/alexanderramin/sectors/internal/logging"
	"github.com/alexanderramin/sectors/internal/session"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	app := &cli.App{
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	// Bootstrap runs after flag parsing so --config and friends apply.
	app.Bootstrap = func(fs *pflag.FlagSet) error {
		v, err := config.New(fs)
		if err != nil {
			return err
		}
		if err := config.ReadFile(v); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}

		logger, logCloser, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		closers = append(closers, logCloser)

		database, err := db.OpenDB(cfg.Session.DBPath)
		if err != nil {
			return fmt.Errorf("opening session database: %w", err)
		}
		closers = append(closers, database)

		policy, err := form.ParseLatePolicy(cfg.Form.LatePolicy)
		if err != nil {
			return err
		}

		jar := session.NewJar(database, logger)
		app.Client = api.NewHTTPClient(api.Config{
			BaseURL: cfg.Server.URL,
			Timeout: cfg.Server.Timeout(),
		}, jar, api.NewLogObserver(logger))
		app.Sessions = jar
		app.Log = logger
		app.Policy = policy
		app.NotifyDuration = cfg.Form.NotifyDuration()

		logger.WithField("server", cfg.Server.URL).Debug("sectors started")
		return nil
	}

	return cli.NewRootCmd(app, config.RegisterFlags).Execute()
}
