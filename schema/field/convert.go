package field

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Convert converts v to the Go type of the field type. It is used for
// values that lost their type on the way: decoded from YAML, JSON or
// msgpack, or reported by the driver as int64.
//
// Integers and integral floats convert to any numeric type they fit in;
// values that would wrap or change sign are rejected. Strings convert to
// uuid, time (RFC 3339) and bytes. nil is kept, and values of TypeOther
// are returned as is.
func (t Type) Convert(v any) (any, error) {
	if v == nil || t == TypeOther {
		return v, nil
	}
	rv := reflect.ValueOf(v)
	switch gt := t.GoType(); {
	case t.Numeric() && (rv.CanInt() || rv.CanUint() || rv.CanFloat()):
		return convertNumber(t, rv, gt)
	case t == TypeUUID:
		switch v := v.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			return uuid.Parse(v)
		case []byte:
			return uuid.FromBytes(v)
		}
	case t == TypeTime:
		switch v := v.(type) {
		case time.Time:
			return v, nil
		case string:
			return time.Parse(time.RFC3339Nano, v)
		}
	case t == TypeBytes:
		switch v := v.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case t.Valid() && rv.Kind() == gt.Kind() && rv.Type().ConvertibleTo(gt):
		return rv.Convert(gt).Interface(), nil
	}
	return nil, fmt.Errorf("field: unexpected value %v (%T) for type %s", v, v, t)
}

// MustConvert is like Convert, but returns v unchanged if it can not be
// converted.
func (t Type) MustConvert(v any) any {
	if cv, err := t.Convert(v); err == nil {
		return cv
	}
	return v
}

func convertNumber(t Type, rv reflect.Value, gt reflect.Type) (any, error) {
	out := reflect.New(gt).Elem()
	overflow := func() (any, error) {
		return nil, fmt.Errorf("field: value %v (%s) out of range for type %s", rv.Interface(), rv.Type(), t)
	}
	switch {
	case out.CanFloat():
		switch {
		case rv.CanInt():
			out.SetFloat(float64(rv.Int()))
		case rv.CanUint():
			out.SetFloat(float64(rv.Uint()))
		default:
			out.SetFloat(rv.Float())
		}
	case out.CanInt():
		var i int64
		switch {
		case rv.CanInt():
			i = rv.Int()
		case rv.CanUint():
			if rv.Uint() > math.MaxInt64 {
				return overflow()
			}
			i = int64(rv.Uint())
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("field: value %v is not an integer for type %s", f, t)
			}
			// 2^63 is the first float64 above MaxInt64.
			if f < math.MinInt64 || f >= 1<<63 {
				return overflow()
			}
			i = int64(f)
		}
		if out.OverflowInt(i) {
			return overflow()
		}
		out.SetInt(i)
	case out.CanUint():
		var u uint64
		switch {
		case rv.CanInt():
			if rv.Int() < 0 {
				return overflow()
			}
			u = uint64(rv.Int())
		case rv.CanUint():
			u = rv.Uint()
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("field: value %v is not an integer for type %s", f, t)
			}
			if f < 0 || f >= 1<<64 {
				return overflow()
			}
			u = uint64(f)
		}
		if out.OverflowUint(u) {
			return overflow()
		}
		out.SetUint(u)
	}
	return out.Interface(), nil
}
