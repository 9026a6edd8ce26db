package track

import (
	"errors"
	"fmt"

	"github.com/syssam/track/dialect/sql/sqlgraph"
)

// Standard sentinel errors for common misuse.
var (
	// ErrUnknownField is returned when a field is not part of the schema.
	ErrUnknownField = errors.New("track: unknown field")

	// ErrValueCount is returned when a row does not hold one value per column.
	ErrValueCount = errors.New("track: value count mismatch")

	// ErrDuplicateEntity is returned by SaveAll when the same entity is
	// passed more than once.
	ErrDuplicateEntity = errors.New("track: entity passed more than once")

	// ErrNilEntity is returned by Save and SaveAll for a nil entity.
	ErrNilEntity = errors.New("track: nil entity")

	// ErrMissingKey is returned when an update has no value for a
	// primary-key column.
	ErrMissingKey = errors.New("track: missing primary key value")

	// ErrNoSnapshotCache is returned by Attach when the client has no
	// snapshot cache configured.
	ErrNoSnapshotCache = errors.New("track: no snapshot cache configured")
)

// UnknownFieldError is returned when a field is not part of the schema.
type UnknownFieldError struct {
	Table string
	Field string
}

// Error returns the error string.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("track: unknown field %q in %s", e.Field, e.Table)
}

// Is reports whether the target error matches UnknownFieldError.
func (e *UnknownFieldError) Is(err error) bool {
	return err == ErrUnknownField
}

// ValueCountError is returned when a row does not hold one value per column.
type ValueCountError struct {
	Table string
	Want  int
	Got   int
}

// Error returns the error string.
func (e *ValueCountError) Error() string {
	return fmt.Sprintf("track: %s: expect %d values, got %d", e.Table, e.Want, e.Got)
}

// Is reports whether the target error matches ValueCountError.
func (e *ValueCountError) Is(err error) bool {
	return err == ErrValueCount
}

// MissingKeyError is returned by Save when an entity with changes has a nil
// primary-key value. The UPDATE would match no row.
type MissingKeyError struct {
	Table  string
	Column string
}

// Error returns the error string.
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("track: update %s: nil value for primary key %q", e.Table, e.Column)
}

// Is reports whether the target error matches MissingKeyError.
func (e *MissingKeyError) Is(err error) bool {
	return err == ErrMissingKey
}

// ExecutionError wraps the error returned by the driver for the statement of
// a save. The driver error is kept verbatim and is reachable through
// errors.Unwrap, errors.Is and errors.As.
type ExecutionError struct {
	Op        Op     // OpInsert or OpUpdate.
	Table     string // table of the entity.
	Statement string // the executed SQL.
	Err       error  // driver error.
}

// Error returns the error string.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("track: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Failure returns the coarse classification of the driver error.
func (e *ExecutionError) Failure() sqlgraph.Failure {
	return sqlgraph.Classify(e.Err)
}

// IsExecutionError returns true if the error is an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
	return errors.As(err, &e)
}

// IsConstraintError returns true if the error resulted from a database
// constraint violation.
func IsConstraintError(err error) bool {
	return err != nil && sqlgraph.IsConstraintError(err)
}
