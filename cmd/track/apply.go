package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/syssam/track"
	"github.com/syssam/track/dialect"
	"github.com/syssam/track/dialect/sql"
)

func (a *app) applyCmd() *cobra.Command {
	var flags rowFlags
	cmd := &cobra.Command{
		Use:     "apply",
		Short:   "Save an entity to the database",
		Example: `  track apply --dialect sqlite3 --dsn file:app.db --entity User --live user.yaml --snapshot stored.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Dialect == "" || a.cfg.DSN == "" {
				return errors.New("apply requires --dialect and --dsn")
			}
			e, err := flags.load(a)
			if err != nil {
				return err
			}
			drv, err := sql.Open(a.cfg.Dialect, a.cfg.DSN)
			if err != nil {
				return err
			}
			defer drv.Close()

			stats := sql.NewStatsDriver(drv,
				sql.WithSlowThreshold(a.cfg.SlowThreshold),
				sql.WithSlowLog(a.log),
			)
			var d dialect.Driver = stats
			if a.cfg.LogLevel <= slog.LevelDebug {
				d = dialect.Debug(stats, a.log)
			}
			client := track.NewClient(d,
				track.Log(a.log),
				track.WithBuilder(drv.Builder().Quoting(a.cfg.Quote)),
				track.Concurrency(a.cfg.Workers),
			)
			res, err := client.Save(cmd.Context(), e)
			if err != nil {
				var execErr *track.ExecutionError
				if errors.As(err, &execErr) {
					a.log.Error("save failed", "table", execErr.Table, "failure", execErr.Failure(), "query", execErr.Statement)
				}
				return fmt.Errorf("apply: %w", err)
			}
			r := newReport(res.Op, res.Statement, res.Changes)
			r.RowsAffected, r.LastInsertID = res.RowsAffected, res.LastInsertID
			a.log.Info("applied", "op", res.Op, "table", e.Schema().Table(), "stats", stats.Stats().Snapshot())
			return r.write(cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	return cmd
}
