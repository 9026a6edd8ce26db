// Command track plans, applies and generates code for tracked entities
// declared in YAML schema files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/track/compiler/load"
	"github.com/syssam/track/internal/config"
	"github.com/syssam/track/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(viper.New()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app holds the state shared by the subcommands.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log *slog.Logger
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}
	cmd := &cobra.Command{
		Use:           "track",
		Short:         "Plan and apply tracked entity changes",
		Version:       config.Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	f := cmd.PersistentFlags()
	f.String("config", "", "config file (yaml)")
	f.String("dialect", "", "SQL dialect: mysql, sqlite3, postgres, or empty for generic SQL")
	f.String("dsn", "", "data source name")
	f.String("schema", "schema", "schema file or directory")
	f.Bool("quote", true, "quote identifiers")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.Duration("slow-threshold", 200*time.Millisecond, "log statements slower than this")
	f.Int("workers", 4, "number of concurrent workers")

	// Viper keys use underscores so they match the env var suffix after
	// stripping the TRACK_ prefix.
	for _, name := range []string{"config", "dialect", "dsn", "schema", "quote", "log-level", "slow-threshold", "workers"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f.Lookup(name))
	}
	config.Defaults(v)
	config.Env(v)

	cmd.AddCommand(a.planCmd(), a.applyCmd(), a.genCmd())
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

// descriptor loads the schema of the given entity. The entity name may be
// omitted when the schema path declares a single entity.
func (a *app) descriptor(entity string) (*schema.Descriptor, error) {
	c := &load.Config{Path: a.cfg.Schema}
	if entity != "" {
		c.Names = []string{entity}
	}
	ds, err := c.Descriptors()
	if err != nil {
		return nil, err
	}
	if len(ds) > 1 {
		names := make([]string, len(ds))
		for i, d := range ds {
			names[i] = d.Name()
		}
		return nil, fmt.Errorf("multiple entities in %s, select one with --entity: %s", a.cfg.Schema, strings.Join(names, ", "))
	}
	return ds[0], nil
}
