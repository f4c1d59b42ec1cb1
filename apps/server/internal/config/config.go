// Package config loads server settings from flags, HOLDEM_* environment
// variables and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"holdem-live/apps/server/internal/auth"
	"holdem-live/apps/server/internal/ledger"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

const EnvPrefix = "HOLDEM"

// Config is the resolved server configuration.
type Config struct {
	Addr string

	LogLevel  string
	LogFormat string

	AuthMode   string
	SessionTTL time.Duration

	LedgerMode  string
	RecentLimit int
	DBPath      string
	DSN         string

	StartingStack     holdem.Chips
	MaxSeats          int
	DefaultSmallBlind holdem.Chips
	DefaultBigBlind   holdem.Chips
	ActionTimeout     time.Duration
	AutoStartDelay    time.Duration
	IdleTableTTL      time.Duration

	PersonasFile  string
	BotThinkDelay time.Duration
}

var defaults = map[string]any{
	"addr":                      ":4000",
	"log.level":                 "info",
	"log.format":                "text",
	"auth.mode":                 auth.ModeMemory,
	"auth.session_ttl":          30 * 24 * time.Hour,
	"ledger.mode":               ledger.ModeMemory,
	"ledger.recent_limit":       ledger.DefaultRecentLimit,
	"db.path":                   "holdem.db",
	"db.dsn":                    "",
	"table.starting_stack":      1000.0,
	"table.max_seats":           holdem.DefaultMaxSeats,
	"table.default_small_blind": 1.0,
	"table.default_big_blind":   2.0,
	"table.action_timeout":      time.Duration(0),
	"table.auto_start_delay":    time.Duration(0),
	"table.idle_ttl":            10 * time.Minute,
	"bots.personas_file":        "",
	"bots.think_delay":          1500 * time.Millisecond,
}

// flag name -> config key
var flagKeys = map[string]string{
	"addr":        "addr",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"auth-mode":   "auth.mode",
	"ledger-mode": "ledger.mode",
	"db-path":     "db.path",
	"db-dsn":      "db.dsn",
}

// BindFlags registers the command-line overrides on cmd.
func BindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("addr", defaults["addr"].(string), "listen address")
	f.String("log-level", defaults["log.level"].(string), "log level (debug, info, warn, error)")
	f.String("log-format", defaults["log.format"].(string), "log format (text, json)")
	f.String("auth-mode", defaults["auth.mode"].(string), "account store (memory, sqlite)")
	f.String("ledger-mode", defaults["ledger.mode"].(string), "hand history store (memory, sqlite, postgres)")
	f.String("db-path", defaults["db.path"].(string), "sqlite database file")
	f.String("db-dsn", "", "postgres connection string")
	f.String("env-file", ".env", "dotenv file loaded before reading the environment")
}

// Load resolves the configuration for cmd. Missing .env files are ignored.
func Load(cmd *cobra.Command) (Config, error) {
	envFile := ".env"
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return Config{}, bindErr
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Addr:              v.GetString("addr"),
		LogLevel:          v.GetString("log.level"),
		LogFormat:         strings.ToLower(v.GetString("log.format")),
		AuthMode:          v.GetString("auth.mode"),
		SessionTTL:        v.GetDuration("auth.session_ttl"),
		LedgerMode:        v.GetString("ledger.mode"),
		RecentLimit:       v.GetInt("ledger.recent_limit"),
		DBPath:            v.GetString("db.path"),
		DSN:               v.GetString("db.dsn"),
		StartingStack:     holdem.ChipsFromFloat(v.GetFloat64("table.starting_stack")),
		MaxSeats:          v.GetInt("table.max_seats"),
		DefaultSmallBlind: holdem.ChipsFromFloat(v.GetFloat64("table.default_small_blind")),
		DefaultBigBlind:   holdem.ChipsFromFloat(v.GetFloat64("table.default_big_blind")),
		ActionTimeout:     v.GetDuration("table.action_timeout"),
		AutoStartDelay:    v.GetDuration("table.auto_start_delay"),
		IdleTableTTL:      v.GetDuration("table.idle_ttl"),
		PersonasFile:      v.GetString("bots.personas_file"),
		BotThinkDelay:     v.GetDuration("bots.think_delay"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that are not validated by the component
// that consumes them.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log.format: unknown format %q", c.LogFormat)
	}
	if c.ActionTimeout < 0 || c.AutoStartDelay < 0 || c.BotThinkDelay < 0 {
		return errors.New("durations must not be negative")
	}
	if err := c.EngineConfig(nil).Validate(); err != nil {
		return fmt.Errorf("table settings: %w", err)
	}
	return nil
}

// EngineConfig is the hand engine configuration for new tables.
func (c Config) EngineConfig(log logrus.FieldLogger) holdem.Config {
	return holdem.Config{
		MaxSeats:      c.MaxSeats,
		SmallBlind:    c.DefaultSmallBlind,
		BigBlind:      c.DefaultBigBlind,
		StartingStack: c.StartingStack,
		Logger:        log,
	}
}

// TableConfig is the template the lobby copies for every table.
func (c Config) TableConfig(log logrus.FieldLogger) table.Config {
	return table.Config{
		Engine:         c.EngineConfig(log),
		ActionTimeout:  c.ActionTimeout,
		AutoStartDelay: c.AutoStartDelay,
		BotThinkDelay:  c.BotThinkDelay,
	}
}

// NewLogger builds the root logger from the log settings.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
