package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"assignment-planner/pkg/persist"
	"assignment-planner/pkg/reminders"
)

// duration parses "90s", "5m" or a bare number of seconds.
type duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *duration) SetValue(s string) error {
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (d duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 90s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

// Config is read from the environment.
type Config struct {
	Port string `env:"PORT" env-default:"3000"`
	Host string `env:"PLANNER_HOST" env-default:"127.0.0.1"`

	StoreDriver string `env:"PLANNER_STORE" env-default:"sqlite"`
	DBPath      string `env:"PLANNER_DB" env-default:"data.db"`

	ReminderWindow    duration `env:"PLANNER_REMINDER_WINDOW" env-default:"24h"`
	ReconcileInterval duration `env:"PLANNER_RECONCILE_INTERVAL" env-default:"1h"`

	// Permission, when set, overrides the saved alert permission.
	Permission string `env:"PLANNER_PERMISSION" env-default:""`
}

// LoadConfig reads and validates the configuration.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.Port == "" || cfg.Port == "0" {
		cfg.Port = "3000"
	}
	switch cfg.StoreDriver {
	case "sqlite", "bolt":
	default:
		return Config{}, fmt.Errorf("PLANNER_STORE: %w: %q", persist.ErrUnknownDriver, cfg.StoreDriver)
	}
	if cfg.Permission != "" {
		if _, err := reminders.ParsePermission(cfg.Permission); err != nil {
			return Config{}, fmt.Errorf("PLANNER_PERMISSION: %w", err)
		}
	}
	if cfg.ReminderWindow.Duration() <= 0 {
		return Config{}, fmt.Errorf("PLANNER_REMINDER_WINDOW must be positive")
	}
	return cfg, nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}
