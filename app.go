package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"assignment-planner/pkg/logger"
	"assignment-planner/pkg/persist"
	"assignment-planner/pkg/planner"
	"assignment-planner/pkg/reminders"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "store, s",
		Usage: "storage backend, sqlite or bolt (default: $PLANNER_STORE or sqlite)",
	},
	cli.StringFlag{
		Name:  "db, d",
		Usage: "path of the database file (default: $PLANNER_DB or data.db)",
	},
	cli.StringFlag{
		Name:  "log-file",
		Usage: "also append log lines to this file",
	},
}

// env carries what every command needs, so tests can swap the file
// system and the output streams.
type env struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
}

// config reads the environment and applies the global flags on top.
func (e *env) config(c *cli.Context) (Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return Config{}, err
	}
	if c.GlobalIsSet("store") {
		cfg.StoreDriver = c.GlobalString("store")
	}
	if c.GlobalIsSet("db") {
		cfg.DBPath = c.GlobalString("db")
	}
	return cfg, nil
}

func (e *env) logger(c *cli.Context) (logger.Logger, error) {
	std := logger.NewStandardLogger(log.New(e.stderr, "", log.LstdFlags))
	path := c.GlobalString("log-file")
	if path == "" {
		return std, nil
	}
	f, err := e.fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.NewMultiLogger(std, logger.NewFileLogger(f)), nil
}

// session is an open store plus the planner loaded from it.
type session struct {
	cfg     Config
	log     logger.Logger
	store   persist.Store
	planner *planner.Planner
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Error("Failed to close store: %v", err)
	}
	s.log.Close()
}

// open loads the persisted planner. delivery may be nil only for callers
// that never save, since a planner without a surface records the
// permission as unsupported.
func (e *env) open(ctx context.Context, c *cli.Context, delivery reminders.Delivery, log logger.Logger) (*session, error) {
	cfg, err := e.config(c)
	if err != nil {
		return nil, err
	}
	var permission reminders.Permission
	if cfg.Permission != "" {
		permission = reminders.Permission(cfg.Permission)
	}

	store, err := persist.Open(cfg.StoreDriver, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	p := planner.New(planner.Config{
		Store:      store,
		Delivery:   delivery,
		Window:     cfg.ReminderWindow.Duration(),
		Permission: permission,
		Logger:     log,
	})
	armed := p.Load(ctx)
	log.Info("Loaded planner state from %s (%s), %d reminders armed", cfg.DBPath, cfg.StoreDriver, armed)

	return &session{cfg: cfg, log: log, store: store, planner: p}, nil
}
