// Package sqlgraph executes the statement of a single save against a
// dialect.ExecQuerier, and classifies the errors drivers return.
package sqlgraph

import (
	"context"

	"github.com/syssam/track/change"
	"github.com/syssam/track/dialect"
	"github.com/syssam/track/dialect/sql"
	"github.com/syssam/track/schema"
)

// Outcome is the result of a statement executed by CreateNode or UpdateNode.
type Outcome struct {
	// Executed is false when no statement was issued.
	Executed bool
	// Statement is the executed statement.
	Statement sql.Statement
	// Affected is the number of rows the driver reported as affected.
	Affected int64
	// LastInsertID is the identifier generated by the database on insert,
	// valid only if HasLastInsertID is true.
	LastInsertID    int64
	HasLastInsertID bool
}

// CreateSpec holds the information for creating a node in the graph.
type CreateSpec struct {
	Schema *schema.Descriptor
	Row    []any // values in column order.
}

// UpdateSpec holds the information for updating a node in the graph.
type UpdateSpec struct {
	Schema    *schema.Descriptor
	ChangeSet change.ChangeSet
	Row       []any // live values in column order; supplies the key.
}

// CreateNode applies the CreateSpec on the graph: it issues exactly one
// INSERT statement. Errors are returned as reported by the driver.
func CreateNode(ctx context.Context, drv dialect.ExecQuerier, b *sql.Builder, spec *CreateSpec) (Outcome, error) {
	stmt := b.InsertStatement(spec.Schema, spec.Row)
	res, err := exec(ctx, drv, stmt)
	if err != nil {
		return Outcome{Statement: stmt}, err
	}
	out := Outcome{Executed: true, Statement: stmt}
	if res != nil {
		out.Affected, _ = res.RowsAffected()
		if id, err := res.LastInsertId(); err == nil {
			out.LastInsertID, out.HasLastInsertID = id, true
		}
	}
	return out, nil
}

// UpdateNode applies the UpdateSpec on the graph. It issues exactly one
// UPDATE statement, or none if the change set holds no changes.
func UpdateNode(ctx context.Context, drv dialect.ExecQuerier, b *sql.Builder, spec *UpdateSpec) (Outcome, error) {
	stmt, ok := b.Update(spec.Schema, spec.ChangeSet, spec.Row)
	if !ok {
		return Outcome{}, nil
	}
	res, err := exec(ctx, drv, stmt)
	if err != nil {
		return Outcome{Statement: stmt}, err
	}
	out := Outcome{Executed: true, Statement: stmt}
	if res != nil {
		out.Affected, _ = res.RowsAffected()
	}
	return out, nil
}

func exec(ctx context.Context, drv dialect.ExecQuerier, stmt sql.Statement) (sql.Result, error) {
	var res sql.Result
	if err := drv.Exec(ctx, stmt.Query, stmt.Args, &res); err != nil {
		return nil, err
	}
	return res, nil
}
