package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Duration is a time.Duration that reads and writes as a string such as "15s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the server settings.
type Config struct {
	Addr              string   `json:"addr"`
	LogLevel          string   `json:"log_level"`
	LogFormat         string   `json:"log_format"`
	MaxGames          int      `json:"max_games"`
	SubscriberBuffer  int      `json:"subscriber_buffer"`
	HeartbeatInterval Duration `json:"heartbeat_interval"`
	ShutdownTimeout   Duration `json:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		Addr:              ":8080",
		LogLevel:          "info",
		LogFormat:         "json",
		MaxGames:          1000,
		SubscriberBuffer:  4,
		HeartbeatInterval: Duration(15 * time.Second),
		ShutdownTimeout:   Duration(5 * time.Second),
	}
}

// Load reads the defaults, then the JSON file at path if path is not empty, then the
// THUD_* environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("THUD_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookup("THUD_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("THUD_LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := lookup("THUD_MAX_GAMES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("THUD_MAX_GAMES: %w", err)
		}
		c.MaxGames = n
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs error
	if c.Addr == "" {
		errs = multierror.Append(errs, fmt.Errorf("addr must not be empty"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = multierror.Append(errs, fmt.Errorf("log_format must be json or console, got %q", c.LogFormat))
	}
	if c.MaxGames < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_games must not be negative"))
	}
	if c.SubscriberBuffer < 1 {
		errs = multierror.Append(errs, fmt.Errorf("subscriber_buffer must be at least 1"))
	}
	if c.HeartbeatInterval <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("heartbeat_interval must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("shutdown_timeout must be positive"))
	}
	return errs
}

// Logger builds the zerolog logger the settings describe.
func (c Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if c.LogFormat == "console" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stderr)
	}
	return l.Level(level).With().Timestamp().Logger()
}
