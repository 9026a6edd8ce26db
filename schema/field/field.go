package field

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Type is the type of a field.
type Type uint8

// Field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeUint64
	TypeFloat64
	TypeString
	TypeBytes
	TypeTime
	TypeUUID
	TypeOther
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeUint64:  "uint64",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeBytes:   "bytes",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeOther:   "other",
}

// String returns the name of the type, as used in declarative schemas.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a known field type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt && t <= TypeFloat64
}

// GoType returns the Go type used for values of this field type.
func (t Type) GoType() reflect.Type {
	switch t {
	case TypeBool:
		return reflect.TypeOf(false)
	case TypeInt:
		return reflect.TypeOf(0)
	case TypeInt64:
		return reflect.TypeOf(int64(0))
	case TypeUint64:
		return reflect.TypeOf(uint64(0))
	case TypeFloat64:
		return reflect.TypeOf(float64(0))
	case TypeString:
		return reflect.TypeOf("")
	case TypeBytes:
		return reflect.TypeOf([]byte(nil))
	case TypeTime:
		return reflect.TypeOf(time.Time{})
	case TypeUUID:
		return reflect.TypeOf(uuid.UUID{})
	default:
		return reflect.TypeOf((*any)(nil)).Elem()
	}
}

// ParseType returns the field type for its declarative name.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if t := Type(i); t.Valid() && name == s {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
}

// A Descriptor for field configuration.
type Descriptor struct {
	Name       string // field name.
	StorageKey string // column name; defaults to Name.
	Type       Type   // field type.
	PrimaryKey bool   // part of the primary key.
	Default    any    // default value or generator func on insert.
	Comment    string // optional field comment.
	Err        error  // builder error.
}

// Field is the interface implemented by all field builders.
type Field interface {
	Descriptor() *Descriptor
}

// Builder is a generic field builder shared by all field types.
type Builder struct {
	desc *Descriptor
}

// New returns a field builder for the given name and type.
func New(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: t}}
}

// Bool returns a new Field with type bool.
func Bool(name string) *Builder { return New(name, TypeBool) }

// Int returns a new Field with type int.
func Int(name string) *Builder { return New(name, TypeInt) }

// Int64 returns a new Field with type int64.
func Int64(name string) *Builder { return New(name, TypeInt64) }

// Uint64 returns a new Field with type uint64.
func Uint64(name string) *Builder { return New(name, TypeUint64) }

// Float returns a new Field with type float64.
func Float(name string) *Builder { return New(name, TypeFloat64) }

// String returns a new Field with type string.
func String(name string) *Builder { return New(name, TypeString) }

// Bytes returns a new Field with type []byte.
func Bytes(name string) *Builder { return New(name, TypeBytes) }

// Time returns a new Field with type time.Time.
func Time(name string) *Builder { return New(name, TypeTime) }

// UUID returns a new Field with type uuid.UUID.
//
//	field.UUID("id").PrimaryKey().Default(uuid.New)
func UUID(name string) *Builder { return New(name, TypeUUID) }

// Any returns a new Field whose values are bound as-is.
func Any(name string) *Builder { return New(name, TypeOther) }

// StorageKey sets the column name of the field in the table.
// If not set, the field name is used.
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// PrimaryKey marks the field as part of the primary key.
// Composite keys are declared by marking several fields; their
// declaration order is the key order.
func (b *Builder) PrimaryKey() *Builder {
	b.desc.PrimaryKey = true
	return b
}

// Default sets the value used on insert when the field was never set.
// The value may be a func with no arguments and one result (e.g. uuid.New
// or time.Now), in which case it is called on every insert.
func (b *Builder) Default(v any) *Builder {
	if v != nil {
		if rt := reflect.TypeOf(v); rt.Kind() == reflect.Func && (rt.NumIn() != 0 || rt.NumOut() != 1) {
			b.desc.Err = fmt.Errorf("field: default func for %q must have signature func() T", b.desc.Name)
			return b
		}
	}
	b.desc.Default = v
	return b
}

// Comment sets the comment of the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}

// Column returns the resolved column name of the field.
func (d *Descriptor) Column() string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

// DefaultValue returns the default value of the field, calling the default
// generator if one was configured. The second value reports whether a
// default exists.
func (d *Descriptor) DefaultValue() (any, bool) {
	if d.Default == nil {
		return nil, false
	}
	rv := reflect.ValueOf(d.Default)
	if rv.Kind() != reflect.Func {
		return d.Default, true
	}
	return rv.Call(nil)[0].Interface(), true
}
