package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/track"
	"github.com/syssam/track/change"
	"github.com/syssam/track/dialect/sql"
	"github.com/syssam/track/schema"
)

// rowFlags are the flags selecting an entity and its values.
type rowFlags struct {
	entity   string
	live     string
	snapshot string
}

func (f *rowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.entity, "entity", "", "entity name (optional if the schema declares one entity)")
	cmd.Flags().StringVar(&f.live, "live", "", "YAML file with the live values")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "YAML file with the stored values; omit for new entities")
	_ = cmd.MarkFlagRequired("live")
}

// load builds the entity described by the flags.
func (f *rowFlags) load(a *app) (*track.Entity, error) {
	d, err := a.descriptor(f.entity)
	if err != nil {
		return nil, err
	}
	live, err := readValues(f.live, d)
	if err != nil {
		return nil, err
	}
	if f.snapshot == "" {
		e := track.New(d)
		return e, e.SetValues(live)
	}
	stored, err := readValues(f.snapshot, d)
	if err != nil {
		return nil, err
	}
	e, err := track.Load(d, stored)
	if err != nil {
		return nil, err
	}
	return e, e.SetValues(live)
}

// report is the YAML document printed by plan and apply.
type report struct {
	Op           string   `yaml:"op"`
	Query        string   `yaml:"query,omitempty"`
	Args         []any    `yaml:"args,omitempty"`
	Changes      []string `yaml:"changes,omitempty"`
	RowsAffected int64    `yaml:"rows_affected,omitempty"`
	LastInsertID int64    `yaml:"last_insert_id,omitempty"`
}

func newReport(op track.Op, stmt sql.Statement, cs change.ChangeSet) *report {
	r := &report{Op: op.String(), Query: stmt.Query}
	for _, arg := range stmt.Args {
		r.Args = append(r.Args, change.Value(arg))
	}
	for _, rec := range cs.Records() {
		r.Changes = append(r.Changes, rec.String())
	}
	return r
}

func (r *report) write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// plan returns the statement a save of e would execute.
func plan(b *sql.Builder, e *track.Entity) *report {
	d, cs := e.Schema(), e.Changes()
	switch {
	case cs.IsInsert():
		return newReport(track.OpInsert, b.InsertStatement(d, withDefaults(d, e.Values())), cs)
	default:
		stmt, ok := b.Update(d, cs, e.Values())
		if !ok {
			return newReport(track.OpNone, sql.Statement{}, cs)
		}
		return newReport(track.OpUpdate, stmt, cs)
	}
}

// withDefaults fills the nil values of row with the column defaults.
func withDefaults(d *schema.Descriptor, row []any) []any {
	for i, c := range d.Columns() {
		if row[i] == nil {
			row[i], _ = c.Default()
		}
	}
	return row
}

func (a *app) planCmd() *cobra.Command {
	var flags rowFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the statement that saving an entity would execute",
		Example: `  track plan --schema schema.yaml --entity User --live user.yaml --snapshot stored.yaml
  TRACK_DIALECT=postgres track plan --live user.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.load(a)
			if err != nil {
				return err
			}
			b := sql.Dialect(a.cfg.Dialect).Quoting(a.cfg.Quote)
			return plan(b, e).write(cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	return cmd
}
