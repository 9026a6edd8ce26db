// Package dialect defines the contract between the change-tracking core and
// the database it writes to.
//
// The core never owns a connection. It hands an [ExecQuerier] one statement
// per save, together with its ordered bind values, and reports whatever the
// driver returns.
//
// # Dialect Constants
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite3"
//
// The dialect selects the placeholder style and identifier quoting of the
// generated statements; see package [github.com/syssam/track/dialect/sql].
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Close() error
//	    Dialect() string
//	}
//
// Reads and transactions are left to the application: a save never issues
// a SELECT and never spans more than one statement.
//
// # Usage
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	client := track.NewClient(dialect.Debug(drv))
package dialect
