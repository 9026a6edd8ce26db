// Package sql builds and executes the statements of a save on top of
// database/sql.
//
// # Statement Builder
//
// A [Builder] turns a schema descriptor into an INSERT statement, and a
// change set into an UPDATE statement:
//
//	b := sql.Dialect("") // identifiers verbatim, "?" placeholders
//
//	query, columns := b.Insert(foo)
//	// INSERT INTO bar_table (foo_column, bar_column) VALUES (?, ?)
//
//	stmt, ok := b.Update(foo, change.Compute(foo, snapshot, live), live)
//	// UPDATE bar_table SET bar_column = ? WHERE foo_column = ? AND bar_column = ? AND 1 = 1
//
// Update reports false when the change set is empty: no statement exists
// for "nothing changed".
//
// The bind values of a statement are index-aligned with its placeholders:
// the SET values first, in change-set order, then the primary-key values,
// in declaration order.
//
// # Dialect Support
//
//	sql.Dialect(dialect.MySQL)    // `ident`, ?
//	sql.Dialect(dialect.SQLite)   // "ident", ?
//	sql.Dialect(dialect.Postgres) // "ident", $1, $2, ...
//
// When a dialect quotes identifiers, it quotes all of them: the table, the
// INSERT column list, the SET clause and the WHERE clause.
//
// # Drivers
//
// [Driver] implements dialect.Driver on a *sql.DB, and [StatsDriver] counts
// executed statements and reports slow ones.
package sql
