// Package config loads the configuration of the track command.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/syssam/track/dialect"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// EnvPrefix is the prefix of the environment variables read by Load,
// e.g. TRACK_DSN or TRACK_SLOW_THRESHOLD.
const EnvPrefix = "TRACK"

// Config holds all runtime configuration of the track command.
type Config struct {
	Dialect       string        // "", "mysql", "sqlite3" or "postgres".
	DSN           string        // data source name passed to the driver.
	Schema        string        // schema file or directory.
	Quote         bool          // quote identifiers.
	LogLevel      slog.Level    // minimum level of the logger.
	SlowThreshold time.Duration // statements slower than this are logged.
	Workers       int           // concurrent saves and generated files.
}

// Defaults registers the default values of all keys.
func Defaults(v *viper.Viper) {
	v.SetDefault("dialect", "")
	v.SetDefault("schema", "schema")
	v.SetDefault("quote", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("slow_threshold", 200*time.Millisecond)
	v.SetDefault("workers", 4)
}

// Env binds the TRACK_* environment variables. Keys use underscores, so
// TRACK_SLOW_THRESHOLD maps to "slow_threshold".
func Env(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from viper, which merges flag values, env vars,
// the config file and defaults (set up by the cobra command in cmd/track).
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Dialect:       v.GetString("dialect"),
		DSN:           v.GetString("dsn"),
		Schema:        v.GetString("schema"),
		Quote:         v.GetBool("quote"),
		SlowThreshold: v.GetDuration("slow_threshold"),
		Workers:       v.GetInt("workers"),
	}
	switch cfg.Dialect {
	case "", dialect.MySQL, dialect.SQLite, dialect.Postgres:
	case "sqlite":
		cfg.Dialect = dialect.SQLite
	default:
		return Config{}, fmt.Errorf("config: unknown dialect %q", cfg.Dialect)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("config: log_level: %w", err)
	}
	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("config: workers must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
