package change

import (
	"bytes"
	"database/sql/driver"
	"reflect"
	"time"
)

// Equal reports whether two column values are equal.
//
// Values are compared the way a database driver would bind them: values
// implementing driver.Valuer are replaced by their driver value, pointers
// are dereferenced, integers are widened to int64 or uint64, and floats to
// float64. Floats use IEEE comparison, so NaN is never equal to NaN.
// Byte slices compare by content (nil differs from empty), times compare
// by instant, and anything else by == or deep equality.
//
// Equal never panics.
func Equal(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case uint64:
			return x >= 0 && uint64(x) == y
		}
		return false
	case uint64:
		switch y := b.(type) {
		case uint64:
			return x == y
		case int64:
			return y >= 0 && uint64(y) == x
		}
		return false
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case []byte:
		y, ok := b.([]byte)
		return ok && (x == nil) == (y == nil) && bytes.Equal(x, y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Value returns v in the representation Equal compares: driver values
// instead of driver.Valuer implementations, dereferenced pointers, and
// integers and floats widened to 64 bits.
func Value(v any) (nv any) {
	defer func() {
		if recover() != nil {
			nv = v
		}
	}()
	return normalize(v)
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// normalize converts v to the representation used for comparison.
func normalize(v any) any {
	for depth := 0; v != nil && depth < 8; depth++ {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		if rv.Type().Implements(valuerType) {
			dv, err := v.(driver.Valuer).Value()
			if err != nil {
				return v
			}
			if reflect.TypeOf(dv) == rv.Type() {
				v = dv
				break
			}
			v = dv
			continue
		}
		if rv.Kind() == reflect.Pointer {
			v = rv.Elem().Interface()
			continue
		}
		break
	}
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return []byte(nil)
			}
			return rv.Bytes()
		}
	}
	return v
}
