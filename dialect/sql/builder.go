package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/track/change"
	"github.com/syssam/track/dialect"
	"github.com/syssam/track/schema"
)

// Statement is a parameterized SQL statement. Args[i] binds to the i-th
// placeholder of Query.
type Statement struct {
	Query string
	Args  []any
}

// Builder synthesizes the INSERT and UPDATE statements of a save.
//
// A Builder with an empty dialect emits identifiers verbatim and uses "?"
// placeholders. For a known dialect, identifiers are quoted the way the
// dialect expects, and the same quoting is applied to the table name, the
// INSERT column list, the SET clause and the WHERE clause.
type Builder struct {
	dialect string
	quote   bool
}

// Dialect creates a new Builder for the given dialect.
//
//	sql.Dialect(dialect.Postgres).Insert(d)
func Dialect(name string) *Builder {
	b := &Builder{dialect: name}
	switch name {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
		b.quote = true
	}
	return b
}

// Quoting returns a copy of the builder with identifier quoting turned on
// or off. Quoting has no effect for the generic dialect.
func (b *Builder) Quoting(on bool) *Builder {
	c := *b
	c.quote = on && b.dialect != ""
	return &c
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// Quote quotes the given identifier with the characters of the dialect.
func (b *Builder) Quote(ident string) string {
	if !b.quote {
		return ident
	}
	q := `"`
	if b.dialect == dialect.MySQL {
		q = "`"
	}
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// placeholder returns the placeholder of the i-th (1-based) argument.
func (b *Builder) placeholder(i int) string {
	if b.dialect == dialect.Postgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// Insert returns the INSERT statement of the given table and the columns
// its placeholders bind to, in declaration order. The output is
// deterministic for a given descriptor.
//
//	INSERT INTO xxxx (id, some_field, some_other_field) VALUES (?, ?, ?)
func (b *Builder) Insert(d *schema.Descriptor) (string, []string) {
	columns := d.ColumnNames()
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.Quote(d.Table()))
	sb.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.Quote(c))
	}
	sb.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.placeholder(i + 1))
	}
	sb.WriteByte(')')
	return sb.String(), columns
}

// InsertStatement returns the INSERT statement of the given table bound to
// the given row values. Values missing from a short row are bound as NULL.
func (b *Builder) InsertStatement(d *schema.Descriptor, row []any) Statement {
	query, columns := b.Insert(d)
	args := make([]any, len(columns))
	copy(args, row)
	return Statement{Query: query, Args: args}
}

// Update returns the UPDATE statement of the given change set, and false
// if there is nothing to execute (an Insert or an empty Update).
//
// The SET clause follows the order of the change set and binds the new
// values. The WHERE clause matches every primary-key column, in declaration
// order, against its value in row, and ends with the "1 = 1" tautology so a
// table without a primary key still yields a valid statement:
//
//	UPDATE bar_table SET bar_column = ? WHERE foo_column = ? AND bar_column = ? AND 1 = 1
func (b *Builder) Update(d *schema.Descriptor, cs change.ChangeSet, row []any) (Statement, bool) {
	changes, ok := cs.Changes()
	if !ok {
		return Statement{}, false
	}
	return b.update(d, changes, row), true
}

func (b *Builder) update(d *schema.Descriptor, changes change.Changes, row []any) Statement {
	pks := d.PrimaryKeys()
	args := make([]any, 0, changes.Len()+len(pks))
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.Quote(d.Table()))
	sb.WriteString(" SET ")
	changes.Each(func(i int, r change.Record) {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, r.Value)
		sb.WriteString(b.Quote(r.Column))
		sb.WriteString(" = ")
		sb.WriteString(b.placeholder(len(args)))
	})
	sb.WriteString(" WHERE ")
	for _, c := range pks {
		var v any
		if c.Ordinal < len(row) {
			v = row[c.Ordinal]
		}
		args = append(args, v)
		sb.WriteString(b.Quote(c.Name))
		sb.WriteString(" = ")
		sb.WriteString(b.placeholder(len(args)))
		sb.WriteString(" AND ")
	}
	sb.WriteString("1 = 1")
	return Statement{Query: sb.String(), Args: args}
}
