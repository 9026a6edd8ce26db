package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/track/compiler/gen"
	"github.com/syssam/track/compiler/load"
)

func (a *app) genCmd() *cobra.Command {
	var (
		target, pkg string
		watchMode   bool
	)
	cmd := &cobra.Command{
		Use:     "gen",
		Short:   "Generate typed entity accessors from the schema",
		Example: `  track gen --schema ./schema --target ./internal/model --watch`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []gen.Option{gen.WithTarget(target), gen.WithWorkers(a.cfg.Workers)}
			if pkg != "" {
				opts = append(opts, gen.WithPackage(pkg))
			}
			generate := func(ctx context.Context) error {
				schemas, err := (&load.Config{Path: a.cfg.Schema}).Load()
				if err != nil {
					return err
				}
				if err := gen.Generate(ctx, schemas, opts...); err != nil {
					return err
				}
				a.log.Info("generated", "schemas", len(schemas), "target", target)
				return nil
			}
			if err := generate(cmd.Context()); err != nil {
				if !watchMode {
					return err
				}
				a.log.Error("generate failed", "error", err)
			}
			if !watchMode {
				return nil
			}
			return watch(cmd.Context(), a.log, a.cfg.Schema, 100*time.Millisecond, generate)
		},
	}
	cmd.Flags().StringVar(&target, "target", "model", "output directory of the generated package")
	cmd.Flags().StringVar(&pkg, "package", "", "name of the generated package (default: base name of target)")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "regenerate when the schema changes")
	return cmd
}

// watch calls fn each time a YAML file under path changes, until ctx is
// done. Bursts of events within delay trigger a single call. Errors of fn
// are logged and do not stop the watch.
func watch(ctx context.Context, log *slog.Logger, path string, delay time.Duration, fn func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	// Editors replace files on save, so single files are watched through
	// their directory.
	dir, only := path, ""
	if !info.IsDir() {
		dir, only = filepath.Dir(path), filepath.Clean(path)
	}
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Info("watching schema", "path", path)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, only) {
				continue
			}
			log.Debug("schema changed", "file", ev.Name, "op", ev.Op.String())
			fire = time.After(delay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("generate failed", "error", err)
			}
		}
	}
}

func relevant(ev fsnotify.Event, only string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	if only != "" {
		return filepath.Clean(ev.Name) == only
	}
	switch filepath.Ext(ev.Name) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
