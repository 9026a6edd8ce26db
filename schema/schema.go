package schema

import (
	"errors"
	"fmt"

	"github.com/syssam/track/schema/field"
)

// Column describes one column of a table. Columns are created by New and
// are never reordered; Ordinal is the declaration position. Descriptors
// hand out copies, so modifying a Column does not affect its descriptor.
type Column struct {
	Field      string // field identifier.
	Name       string // resolved column name.
	PrimaryKey bool
	Ordinal    int
	Type       field.Type
	desc       *field.Descriptor
}

// Default returns the insert default of the column, if any.
func (c Column) Default() (any, bool) {
	if c.desc == nil {
		return nil, false
	}
	return c.desc.DefaultValue()
}

// DeclaredDefault returns the default as declared on the field: a value or
// a generator func, which is not called.
func (c Column) DeclaredDefault() (any, bool) {
	if c.desc == nil || c.desc.Default == nil {
		return nil, false
	}
	return c.desc.Default, true
}

// HasDefault reports if the column declares an insert default.
func (c Column) HasDefault() bool {
	return c.desc != nil && c.desc.Default != nil
}

// Comment returns the field comment.
func (c Column) Comment() string {
	if c.desc == nil {
		return ""
	}
	return c.desc.Comment
}

// Descriptor is the static metadata of an entity type: its table and the
// ordered list of its columns. A Descriptor is immutable once created and is
// safe for concurrent use.
type Descriptor struct {
	name    string
	table   string
	columns []Column
	pks     []int // ordinals of the primary-key columns.
	byField map[string]int
}

// New creates the descriptor of the given table from its fields. The entity
// name defaults to the table name; use Named to set it.
//
//	schema.New("bar_table",
//		field.Int("foo1").StorageKey("foo_column").PrimaryKey(),
//		field.Int("foo2").StorageKey("bar_column").PrimaryKey(),
//	)
func New(table string, fields ...field.Field) (*Descriptor, error) {
	return Named(table, table, fields...)
}

// Named is like New, but sets the entity name of the descriptor.
func Named(name, table string, fields ...field.Field) (*Descriptor, error) {
	if table == "" {
		return nil, &SchemaError{Entity: name, Reason: "missing table name"}
	}
	if len(fields) == 0 {
		return nil, &SchemaError{Entity: name, Table: table, Reason: "no columns defined"}
	}
	d := &Descriptor{
		name:    name,
		table:   table,
		columns: make([]Column, 0, len(fields)),
		byField: make(map[string]int, len(fields)),
	}
	names := make(map[string]struct{}, len(fields))
	var errs []error
	for i, f := range fields {
		fd := f.Descriptor()
		switch {
		case fd.Err != nil:
			errs = append(errs, &SchemaError{Entity: name, Table: table, Column: fd.Name, Reason: fd.Err.Error()})
			continue
		case fd.Name == "":
			errs = append(errs, &SchemaError{Entity: name, Table: table, Reason: fmt.Sprintf("field #%d has no name", i)})
			continue
		}
		// The builder stays usable by the caller; keep a private copy.
		desc := *fd
		c := Column{
			Field:      desc.Name,
			Name:       desc.Column(),
			PrimaryKey: desc.PrimaryKey,
			Ordinal:    len(d.columns),
			Type:       desc.Type,
			desc:       &desc,
		}
		if _, ok := names[c.Name]; ok {
			errs = append(errs, &SchemaError{Entity: name, Table: table, Column: c.Name, Reason: "duplicate column name"})
			continue
		}
		if _, ok := d.byField[c.Field]; ok {
			errs = append(errs, &SchemaError{Entity: name, Table: table, Column: c.Name, Reason: fmt.Sprintf("duplicate field %q", c.Field)})
			continue
		}
		names[c.Name] = struct{}{}
		d.byField[c.Field] = c.Ordinal
		d.columns = append(d.columns, c)
		if c.PrimaryKey {
			d.pks = append(d.pks, c.Ordinal)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return d, nil
}

// MustNew is like New but panics on error. It simplifies the declaration
// of package level descriptors.
func MustNew(table string, fields ...field.Field) *Descriptor {
	d, err := New(table, fields...)
	if err != nil {
		panic(err)
	}
	return d
}

// MustNamed is like Named but panics on error.
func MustNamed(name, table string, fields ...field.Field) *Descriptor {
	d, err := Named(name, table, fields...)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the entity name.
func (d *Descriptor) Name() string { return d.name }

// Table returns the table name.
func (d *Descriptor) Table() string { return d.table }

// Len returns the number of columns.
func (d *Descriptor) Len() int { return len(d.columns) }

// Columns returns a copy of all columns in declaration order.
func (d *Descriptor) Columns() []Column {
	return append([]Column(nil), d.columns...)
}

// PrimaryKeys returns a copy of the primary-key columns in declaration
// order. The result is empty for tables without a primary key.
func (d *Descriptor) PrimaryKeys() []Column {
	pks := make([]Column, len(d.pks))
	for i, o := range d.pks {
		pks[i] = d.columns[o]
	}
	return pks
}

// ColumnNames returns the column names in declaration order.
func (d *Descriptor) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column of the given field.
func (d *Descriptor) Column(field string) (Column, bool) {
	o, ok := d.byField[field]
	if !ok {
		return Column{}, false
	}
	return d.columns[o], true
}

// At returns the column at the given ordinal.
func (d *Descriptor) At(i int) Column {
	return d.columns[i]
}
