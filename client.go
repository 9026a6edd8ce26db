package track

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/track/change"
	"github.com/syssam/track/dialect"
	"github.com/syssam/track/dialect/sql"
	"github.com/syssam/track/dialect/sql/sqlgraph"
	"github.com/syssam/track/schema"
)

// Op is the operation executed by a save.
type Op uint8

// Save operations.
const (
	// OpNone means nothing changed and no statement was executed.
	OpNone Op = iota
	OpInsert
	OpUpdate
)

// String returns the operation name.
func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	default:
		return "none"
	}
}

// Result describes a successful save.
type Result struct {
	// Op is OpNone when the entity had no changes and nothing was executed.
	Op Op
	// Statement is the executed statement; empty for OpNone.
	Statement sql.Statement
	// Changes is the change set the statement was built from.
	Changes change.ChangeSet
	// RowsAffected is the number of rows reported by the driver.
	RowsAffected int64
	// LastInsertID is the identifier generated by the database on insert,
	// or 0 if the driver does not report one.
	LastInsertID int64
}

// Executed reports if a statement was executed.
func (r Result) Executed() bool { return r.Op != OpNone }

// Option configures the Client.
type Option func(*Client)

// Log sets the logger of the client. Statements are logged at debug level.
func Log(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBuilder overrides the statement builder derived from the driver
// dialect, e.g. to turn identifier quoting off.
func WithBuilder(b *sql.Builder) Option {
	return func(c *Client) {
		if b != nil {
			c.builder = b
		}
	}
}

// WithSnapshotCache stores the snapshot of every saved entity in the given
// store, so that detached entities can be rebuilt with Attach.
func WithSnapshotCache(s *SnapshotStore) Option {
	return func(c *Client) {
		c.snapshots = s
	}
}

// Concurrency sets the maximum number of saves SaveAll runs at once.
// Default is 8.
func Concurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Client saves tracked entities through a dialect.Driver.
//
// A Client holds no per-entity state and is safe for concurrent use, as
// long as each entity is saved by one goroutine at a time.
type Client struct {
	driver    dialect.Driver
	builder   *sql.Builder
	log       *slog.Logger
	snapshots *SnapshotStore
	workers   int
}

// NewClient creates a new client configured with the given options.
func NewClient(drv dialect.Driver, opts ...Option) *Client {
	c := &Client{
		driver:  drv,
		builder: sql.Dialect(drv.Dialect()),
		log:     slog.Default(),
		workers: 8,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Driver returns the underlying driver of the client.
func (c *Client) Driver() dialect.Driver { return c.driver }

// Builder returns the statement builder of the client.
func (c *Client) Builder() *sql.Builder { return c.builder }

// Save writes the entity to the database with exactly one statement: an
// INSERT for unsaved entities, an UPDATE of the changed columns for loaded
// ones, or nothing if the entity has no changes (Result.Op == OpNone).
//
// On success, the snapshot of the entity is replaced by the saved values.
// If the driver fails, Save returns an *ExecutionError and the entity is
// left untouched; Save never retries.
//
// A single-column primary key left nil on insert is filled with the
// identifier reported by the driver. Drivers that report none, such as
// lib/pq, leave it nil; such an entity can not be updated and Save returns
// a *MissingKeyError until the key is set (e.g. by reloading the row).
func (c *Client) Save(ctx context.Context, e *Entity) (Result, error) {
	if e == nil {
		return Result{}, ErrNilEntity
	}
	d := e.schema
	row := e.Values()
	cs := change.Compute(d, e.snapshot, row)
	if cs.IsInsert() {
		return c.insert(ctx, e, row)
	}
	if !cs.Empty() {
		for _, pk := range d.PrimaryKeys() {
			if change.Value(row[pk.Ordinal]) == nil {
				return Result{}, &MissingKeyError{Table: d.Table(), Column: pk.Name}
			}
		}
	}
	out, err := sqlgraph.UpdateNode(ctx, c.driver, c.builder, &sqlgraph.UpdateSpec{Schema: d, ChangeSet: cs, Row: row})
	if err != nil {
		c.log.DebugContext(ctx, "track: update failed", "table", d.Table(), "query", out.Statement.Query, "error", err)
		return Result{}, &ExecutionError{Op: OpUpdate, Table: d.Table(), Statement: out.Statement.Query, Err: err}
	}
	if !out.Executed {
		c.log.DebugContext(ctx, "track: nothing to update", "table", d.Table())
		return Result{Op: OpNone, Changes: cs}, nil
	}
	c.log.DebugContext(ctx, "track: updated", "table", d.Table(), "query", out.Statement.Query, "args", out.Statement.Args, "affected", out.Affected)
	e.commit(row)
	c.remember(ctx, e)
	return Result{Op: OpUpdate, Statement: out.Statement, Changes: cs, RowsAffected: out.Affected}, nil
}

func (c *Client) insert(ctx context.Context, e *Entity, row []any) (Result, error) {
	d := e.schema
	for i, col := range d.Columns() {
		if row[i] != nil {
			continue
		}
		if v, ok := col.Default(); ok {
			row[i] = v
		}
	}
	out, err := sqlgraph.CreateNode(ctx, c.driver, c.builder, &sqlgraph.CreateSpec{Schema: d, Row: row})
	if err != nil {
		c.log.DebugContext(ctx, "track: insert failed", "table", d.Table(), "query", out.Statement.Query, "error", err)
		return Result{}, &ExecutionError{Op: OpInsert, Table: d.Table(), Statement: out.Statement.Query, Err: err}
	}
	// A single-column key left nil was generated by the database.
	if pks := d.PrimaryKeys(); out.HasLastInsertID && len(pks) == 1 && row[pks[0].Ordinal] == nil {
		row[pks[0].Ordinal] = pks[0].Type.MustConvert(out.LastInsertID)
	}
	c.log.DebugContext(ctx, "track: inserted", "table", d.Table(), "query", out.Statement.Query, "args", out.Statement.Args, "id", out.LastInsertID)
	e.commit(row)
	c.remember(ctx, e)
	return Result{
		Op:           OpInsert,
		Statement:    out.Statement,
		Changes:      change.Insert(),
		RowsAffected: out.Affected,
		LastInsertID: out.LastInsertID,
	}, nil
}

// remember stores the snapshot of a saved entity in the snapshot cache.
// Cache failures do not fail the save.
func (c *Client) remember(ctx context.Context, e *Entity) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.Put(ctx, e.schema, e.snapshot); err != nil {
		c.log.WarnContext(ctx, "track: caching snapshot", "table", e.schema.Table(), "error", err)
	}
}

// SaveAll saves the given entities concurrently and returns their results
// in order. Every entity is attempted; the returned error joins the errors
// of the failed saves, whose entities are left untouched.
func (c *Client) SaveAll(ctx context.Context, entities ...*Entity) ([]Result, error) {
	seen := make(map[*Entity]struct{}, len(entities))
	for _, e := range entities {
		if e == nil {
			return nil, ErrNilEntity
		}
		if _, ok := seen[e]; ok {
			return nil, ErrDuplicateEntity
		}
		seen[e] = struct{}{}
	}
	var (
		g       errgroup.Group
		results = make([]Result, len(entities))
		errs    = make([]error, len(entities))
	)
	g.SetLimit(c.workers)
	for i, e := range entities {
		i, e := i, e
		g.Go(func() error {
			results[i], errs[i] = c.Save(ctx, e)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// Attach rebuilds a detached entity from its live values and the snapshot
// cached by a previous save. If no snapshot is cached for its key, the
// returned entity is unsaved.
func (c *Client) Attach(ctx context.Context, d *schema.Descriptor, live []any) (*Entity, error) {
	if c.snapshots == nil {
		return nil, ErrNoSnapshotCache
	}
	if len(live) != d.Len() {
		return nil, &ValueCountError{Table: d.Table(), Want: d.Len(), Got: len(live)}
	}
	e := New(d)
	copy(e.values, live)
	snapshot, ok, err := c.snapshots.Get(ctx, d, live)
	if err != nil {
		return nil, err
	}
	if ok {
		e.snapshot = snapshot
	}
	return e, nil
}
