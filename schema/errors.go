package schema

import (
	"errors"
	"fmt"
)

// SchemaError is returned when a descriptor can not be constructed.
// It is fatal: no entity of an invalid schema can exist.
type SchemaError struct {
	Entity string
	Table  string
	Column string
	Reason string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("schema: %s.%s: %s", e.Table, e.Column, e.Reason)
	case e.Table != "":
		return fmt.Sprintf("schema: %s: %s", e.Table, e.Reason)
	default:
		return fmt.Sprintf("schema: %s: %s", e.Entity, e.Reason)
	}
}

// IsSchemaError returns true if the error is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e)
}
