package track_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/track"
	"github.com/syssam/track/dialect/sql/sqlgraph"
)

func TestUnknownFieldError(t *testing.T) {
	err := &track.UnknownFieldError{Table: "users", Field: "nickname"}
	assert.Equal(t, `track: unknown field "nickname" in users`, err.Error())
	assert.True(t, errors.Is(err, track.ErrUnknownField))
	assert.False(t, errors.Is(err, track.ErrValueCount))

	wrapped := fmt.Errorf("wrapper: %w", err)
	var target *track.UnknownFieldError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "nickname", target.Field)
}

func TestValueCountError(t *testing.T) {
	err := &track.ValueCountError{Table: "users", Want: 3, Got: 2}
	assert.Equal(t, "track: users: expect 3 values, got 2", err.Error())
	assert.True(t, errors.Is(err, track.ErrValueCount))
	assert.False(t, errors.Is(err, track.ErrUnknownField))
}

func TestExecutionError(t *testing.T) {
	t.Run("Unwrap", func(t *testing.T) {
		driverErr := errors.New("connection reset")
		err := &track.ExecutionError{Op: track.OpUpdate, Table: "users", Statement: "UPDATE users SET name = ? WHERE 1 = 1", Err: driverErr}
		assert.Equal(t, "track: update users: connection reset", err.Error())
		assert.Same(t, driverErr, errors.Unwrap(err))
		assert.True(t, errors.Is(err, driverErr))
		assert.True(t, track.IsExecutionError(err))
		assert.True(t, track.IsExecutionError(fmt.Errorf("save: %w", err)))
		assert.False(t, track.IsExecutionError(driverErr))
		assert.False(t, track.IsExecutionError(nil))
	})

	t.Run("Failure", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want sqlgraph.Failure
		}{
			{"postgres_unique", &pq.Error{Code: "23505"}, sqlgraph.FailureConstraint},
			{"mysql_foreign_key", &mysql.MySQLError{Number: 1452}, sqlgraph.FailureConstraint},
			{"unknown", errors.New("boom"), sqlgraph.FailureUnknown},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := &track.ExecutionError{Op: track.OpInsert, Table: "users", Err: tt.err}
				assert.Equal(t, tt.want, err.Failure())
				assert.Equal(t, tt.want == sqlgraph.FailureConstraint, track.IsConstraintError(err))
			})
		}
	})

	t.Run("As", func(t *testing.T) {
		err := fmt.Errorf("wrapper: %w", &track.ExecutionError{Op: track.OpInsert, Table: "users", Err: &pq.Error{Code: "23505"}})
		var pqErr *pq.Error
		require.True(t, errors.As(err, &pqErr))
		assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)
	})
	assert.False(t, track.IsConstraintError(nil))
}
