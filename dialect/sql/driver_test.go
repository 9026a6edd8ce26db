package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/syssam/track/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
	}{
		{"Postgres", dialect.Postgres},
		{"MySQL", dialect.MySQL},
		{"SQLite", dialect.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.dialect, db)
			assert.NotNil(t, drv)
			assert.Equal(t, tt.dialect, drv.Dialect())
			assert.Equal(t, tt.dialect, drv.Builder().Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestDialectSuffix(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres+"-traced", db)
	assert.Equal(t, dialect.Postgres, drv.Dialect())
	assert.Equal(t, "sqlite", driverName(dialect.SQLite))
	assert.Equal(t, dialect.MySQL, driverName(dialect.MySQL))
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("exec_with_result", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "users"`).
			WithArgs(1, "a8m").
			WillReturnResult(sqlmock.NewResult(1, 1))

		var res Result
		err := drv.Exec(context.Background(), `INSERT INTO "users" ("id", "name") VALUES ($1, $2)`, []any{1, "a8m"}, &res)
		require.NoError(t, err)
		affected, err := res.RowsAffected()
		require.NoError(t, err)
		assert.EqualValues(t, 1, affected)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_without_result", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "users" SET "name" = \$1 WHERE "id" = \$2 AND 1 = 1`).
			WithArgs("Alice", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := drv.Exec(context.Background(), `UPDATE "users" SET "name" = $1 WHERE "id" = $2 AND 1 = 1`, []any{"Alice", 1}, nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		expectedErr := errors.New("constraint violation")
		mock.ExpectExec("UPDATE").WillReturnError(expectedErr)

		err := drv.Exec(context.Background(), "UPDATE users SET name = $1 WHERE 1 = 1", []any{"x"}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, expectedErr, "driver errors are wrapped, not replaced")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Exec(context.Background(), "UPDATE users", "bad", nil)
		require.EqualError(t, err, "dialect/sql: invalid type string. expect []any for args")
		var n int
		err = drv.Exec(context.Background(), "UPDATE users", []any{}, &n)
		require.EqualError(t, err, "dialect/sql: invalid type *int. expect *sql.Result")
	})
}

func TestConnTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Statements of a save can join a transaction owned by the caller.
	tx, err := db.Begin()
	require.NoError(t, err)
	var res Result
	require.NoError(t, Conn{ExecQuerier: tx}.Exec(context.Background(), "INSERT INTO users (name) VALUES (?)", []any{"a"}, &res))
	require.NoError(t, tx.Commit())
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectExec("UPDATE").WillReturnError(context.Canceled)
	err = drv.Exec(ctx, "UPDATE t SET a = $1 WHERE 1 = 1", []any{1}, nil)
	assert.Error(t, err)
}

func BenchmarkDriver(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)
	b.Run("Exec_Simple", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
			_ = drv.Exec(context.Background(), "INSERT INTO t VALUES ($1)", []any{1}, nil)
		}
	})
}
