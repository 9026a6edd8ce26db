package sqlgraph

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/syssam/track/change"
	"github.com/syssam/track/dialect"
	"github.com/syssam/track/dialect/sql"
	"github.com/syssam/track/schema"
	"github.com/syssam/track/schema/field"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var users = schema.MustNamed("User", "users",
	field.Int("id").PrimaryKey(),
	field.String("name"),
	field.Int("age"),
)

func TestCreateNode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(dialect.MySQL, db)

	mock.ExpectExec(escape("INSERT INTO `users` (`id`, `name`, `age`) VALUES (?, ?, ?)")).
		WithArgs(nil, "a8m", 30).
		WillReturnResult(sqlmock.NewResult(7, 1))

	out, err := CreateNode(context.Background(), drv, drv.Builder(), &CreateSpec{Schema: users, Row: []any{nil, "a8m", 30}})
	require.NoError(t, err)
	assert.True(t, out.Executed)
	assert.True(t, out.HasLastInsertID)
	assert.EqualValues(t, 7, out.LastInsertID)
	assert.EqualValues(t, 1, out.Affected)
	assert.Equal(t, []any{nil, "a8m", 30}, out.Statement.Args)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNode_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(dialect.SQLite, db)

	cause := errors.New("UNIQUE constraint failed: users.id")
	mock.ExpectExec("INSERT INTO").WillReturnError(cause)
	out, err := CreateNode(context.Background(), drv, drv.Builder(), &CreateSpec{Schema: users, Row: []any{1, "a", 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.False(t, out.Executed)
	assert.True(t, IsUniqueConstraintError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(dialect.Postgres, db)

	live := []any{1, "a8m", 31}
	cs := change.Compute(users, []any{1, "a8m", 30}, live)
	mock.ExpectExec(escape(`UPDATE "users" SET "age" = $1 WHERE "id" = $2 AND 1 = 1`)).
		WithArgs(31, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := UpdateNode(context.Background(), drv, drv.Builder(), &UpdateSpec{Schema: users, ChangeSet: cs, Row: live})
	require.NoError(t, err)
	assert.True(t, out.Executed)
	assert.EqualValues(t, 1, out.Affected)
	assert.False(t, out.HasLastInsertID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNode_NoChanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(dialect.Postgres, db)

	live := []any{1, "a8m", 30}
	out, err := UpdateNode(context.Background(), drv, drv.Builder(), &UpdateSpec{
		Schema:    users,
		ChangeSet: change.Compute(users, live, live),
		Row:       live,
	})
	require.NoError(t, err)
	assert.False(t, out.Executed)
	assert.Empty(t, out.Statement.Query)
	require.NoError(t, mock.ExpectationsWereMet(), "no statement is issued")
}

func escape(query string) string {
	return regexp.QuoteMeta(query)
}
