package sqlgraph

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// Failure is a coarse classification of an execution error.
type Failure uint8

// Failure classes.
const (
	FailureUnknown Failure = iota
	FailureConstraint
	FailureTimeout
	FailureCanceled
	FailureConnectivity
)

// String returns the failure class name.
func (f Failure) String() string {
	switch f {
	case FailureConstraint:
		return "constraint"
	case FailureTimeout:
		return "timeout"
	case FailureCanceled:
		return "canceled"
	case FailureConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Classify returns the failure class of an error returned by a driver.
// It inspects the error chain only; the error itself is never altered.
func Classify(err error) Failure {
	switch {
	case err == nil:
		return FailureUnknown
	case IsConstraintError(err):
		return FailureConstraint
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case IsConnectivityError(err):
		return FailureConnectivity
	}
	if ne, ok := asError[net.Error](err); ok && ne.Timeout() {
		return FailureTimeout
	}
	return FailureUnknown
}

// ConstraintError represents an error returned by the database because a
// statement violates a constraint.
type ConstraintError struct {
	msg  string
	wrap error
}

// NewConstraintError returns a ConstraintError wrapping the given error.
func NewConstraintError(msg string, err error) *ConstraintError {
	return &ConstraintError{msg: msg, wrap: err}
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return "sqlgraph: constraint failed: " + e.msg
}

// Unwrap implements the errors.Wrapper interface.
func (e *ConstraintError) Unwrap() error {
	return e.wrap
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// IsConnectivityError reports if the error resulted from a broken or
// unreachable connection.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var op *net.OpError
	if errors.As(err, &op) {
		return true
	}
	return containsAny(err.Error(),
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"invalid connection", // MySQL
	)
}

// sqlStateError is implemented by errors that expose their SQLSTATE (pgx).
type sqlStateError interface {
	SQLState() string
}

// violation describes how each driver reports a class of constraint
// violation.
type violation struct {
	sqlState string   // PostgreSQL SQLSTATE (class 23).
	mysql    []uint16 // MySQL error numbers.
	sqlite   []int    // SQLite extended result codes.
	messages []string // fallback for drivers without typed errors.
}

var (
	uniqueViolation = violation{
		sqlState: "23505",
		mysql:    []uint16{1062},
		sqlite:   []int{2067, 1555},
		messages: []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	}
	foreignKeyViolation = violation{
		sqlState: "23503",
		mysql:    []uint16{1451, 1452},
		sqlite:   []int{787},
		messages: []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	}
	checkViolation = violation{
		sqlState: "23514",
		mysql:    []uint16{3819},
		sqlite:   []int{275},
		messages: []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	}
	notNullViolation = violation{
		sqlState: "23502",
		mysql:    []uint16{1048},
		sqlite:   []int{1299},
		messages: []string{"Error 1048", "violates not-null constraint", "NOT NULL constraint failed"},
	}
)

func (v violation) match(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*pq.Error](err); ok {
		return string(e.Code) == v.sqlState
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return slices.Contains(v.mysql, e.Number)
	}
	// Without extended result codes, SQLite only reports SQLITE_CONSTRAINT
	// and the message tells the violations apart.
	if e, ok := asError[*sqlite.Error](err); ok && slices.Contains(v.sqlite, e.Code()) {
		return true
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == v.sqlState {
		return true
	}
	return containsAny(err.Error(), v.messages...)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool { return uniqueViolation.match(err) }

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool { return foreignKeyViolation.match(err) }

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool { return checkViolation.match(err) }

// IsNotNullConstraintError reports if the error resulted from writing NULL
// into a NOT NULL column.
func IsNotNullConstraintError(err error) bool { return notNullViolation.match(err) }

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
