package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/syssam/track/dialect"
)

// Driver is a dialect.Driver implementation for SQL based databases.
type Driver struct {
	Conn
	dialect string
}

// NewDriver creates a new Driver with the given Conn and dialect.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open wraps the database/sql.Open method and returns a Driver for the
// given dialect. SQLite connections use the pure-Go "sqlite" driver, which
// must be registered by the caller (blank import of modernc.org/sqlite).
func Open(dialectName, source string) (*Driver, error) {
	db, err := sql.Open(driverName(dialectName), source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", dialectName, err)
	}
	return OpenDB(dialectName, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, Conn{ExecQuerier: db})
}

// driverName returns the database/sql driver name registered for a dialect.
func driverName(name string) string {
	if name == dialect.SQLite {
		return "sqlite"
	}
	return name
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements the dialect.Dialect method.
func (d Driver) Dialect() string {
	// The dialect may carry a suffix when the driver is wrapped (e.g. "postgres-otel").
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Builder returns a statement builder for the dialect of the driver.
func (d Driver) Builder() *Builder {
	return Dialect(d.Dialect())
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// ExecQuerier wraps the standard ExecContext method, implemented by
// *sql.DB, *sql.Conn and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
}

// Exec implements the dialect.Exec method. v is either nil or a *Result
// that receives the outcome of the statement.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

var _ dialect.Driver = (*Driver)(nil)

// Result is an alias to sql.Result.
type Result = sql.Result
