package load

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"

	"github.com/syssam/track/schema"
	"github.com/syssam/track/schema/field"
)

// TagName is the struct tag read by Struct. Its value is the column name,
// optionally followed by options:
//
//	type User struct {
//		ID   int64  `track:"id,pk"`
//		Name string `track:"user_name"`
//		Temp string `track:"-"`
//	}
const TagName = "track"

// Tabler is implemented by structs that declare their table name.
type Tabler interface {
	TableName() string
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	rules    = ruleset()
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{"ID", "UUID", "URL", "API", "JSON", "HTTP", "SQL"} {
		rules.AddAcronym(w)
	}
	return rules
}

// structField maps a schema field to the index path of a struct field.
type structField struct {
	index []int
	name  string
	desc  *field.Builder
}

// Struct loads the schema declared by the exported fields of a struct.
// v is a struct or a pointer to one. Embedded structs are flattened.
//
// The entity name is the struct name. The table is the result of the
// TableName method if the struct implements Tabler, and the pluralized
// snake case of the struct name otherwise. Untagged fields use the snake
// case of their name as field identifier and column.
func Struct(v any) (*schema.Descriptor, error) {
	t := indirect(reflect.TypeOf(v))
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("load: expect struct, got %T", v)
	}
	fields, err := structFields(t)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", t.Name(), err)
	}
	table, err := tableName(v)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", t.Name(), err)
	}
	if table == "" {
		table = rules.Pluralize(rules.Underscore(t.Name()))
	}
	fs := make([]field.Field, len(fields))
	for i, f := range fields {
		fs[i] = f.desc
	}
	return schema.Named(t.Name(), table, fs...)
}

// Values returns the values of the struct fields of v, in column order.
func Values(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.New("load: nil struct pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("load: expect struct, got %T", v)
	}
	fields, err := structFields(rv.Type())
	if err != nil {
		return nil, err
	}
	values := make([]any, len(fields))
	for i, f := range fields {
		fv, err := rv.FieldByIndexErr(f.index)
		if err != nil {
			// Field of a nil embedded pointer.
			continue
		}
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		values[i] = fv.Interface()
	}
	return values, nil
}

// Assign sets the struct fields of the struct pointed to by v from the
// given values, in column order. It is the inverse of Values and is used
// to copy saved values, such as generated identifiers, back to a struct.
func Assign(v any, values []any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("load: expect non-nil struct pointer, got %T", v)
	}
	rv = rv.Elem()
	fields, err := structFields(rv.Type())
	if err != nil {
		return err
	}
	if len(values) != len(fields) {
		return fmt.Errorf("load: %s: expect %d values, got %d", rv.Type().Name(), len(fields), len(values))
	}
	for i, f := range fields {
		fv, err := rv.FieldByIndexErr(f.index)
		if err != nil {
			continue
		}
		if err := assign(fv, values[i]); err != nil {
			return fmt.Errorf("load: %s.%s: %w", rv.Type().Name(), f.name, err)
		}
	}
	return nil
}

func assign(fv reflect.Value, v any) error {
	if v == nil {
		fv.SetZero()
		return nil
	}
	if fv.Kind() == reflect.Pointer {
		p := reflect.New(fv.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		fv.Set(p)
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(fv.Type()):
		fv.Set(rv)
	case rv.CanInt() && (fv.CanInt() || fv.CanUint() || fv.CanFloat()),
		rv.CanUint() && (fv.CanInt() || fv.CanUint() || fv.CanFloat()),
		rv.CanFloat() && fv.CanFloat():
		fv.Set(rv.Convert(fv.Type()))
	default:
		return fmt.Errorf("can not assign %T to %s", v, fv.Type())
	}
	return nil
}

func structFields(t reflect.Type) ([]*structField, error) {
	var (
		fields []*structField
		walk   func(reflect.Type, []int) error
	)
	walk = func(t reflect.Type, index []int) error {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			path := append(append([]int(nil), index...), i)
			tag, hasTag := sf.Tag.Lookup(TagName)
			if tag == "-" {
				continue
			}
			if sf.Anonymous && !hasTag {
				if et := indirect(sf.Type); et.Kind() == reflect.Struct && et != timeType {
					if err := walk(et, path); err != nil {
						return err
					}
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			if name == "" {
				name = rules.Underscore(sf.Name)
			}
			b := field.New(name, fieldType(sf.Type))
			for _, opt := range strings.Split(opts, ",") {
				switch strings.TrimSpace(opt) {
				case "":
				case "pk":
					b.PrimaryKey()
				default:
					return fmt.Errorf("field %s: unknown tag option %q", sf.Name, opt)
				}
			}
			fields = append(fields, &structField{index: path, name: sf.Name, desc: b})
		}
		return nil
	}
	if err := walk(t, nil); err != nil {
		return nil, err
	}
	return fields, nil
}

// fieldType returns the field type of a Go type.
func fieldType(t reflect.Type) field.Type {
	t = indirect(t)
	switch t {
	case timeType:
		return field.TypeTime
	case uuidType:
		return field.TypeUUID
	}
	switch t.Kind() {
	case reflect.Bool:
		return field.TypeBool
	case reflect.Int:
		return field.TypeInt
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.TypeInt64
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return field.TypeUint64
	case reflect.Float32, reflect.Float64:
		return field.TypeFloat64
	case reflect.String:
		return field.TypeString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return field.TypeBytes
		}
	}
	return field.TypeOther
}

// tableName wraps the TableName method with recover to ensure no panics in loading.
func tableName(v any) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("TableName panics: %v", r)
		}
	}()
	if t, ok := v.(Tabler); ok {
		return t.TableName(), nil
	}
	// Methods declared on the pointer receiver.
	if rv := reflect.ValueOf(v); rv.Kind() != reflect.Pointer {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		if t, ok := p.Interface().(Tabler); ok {
			return t.TableName(), nil
		}
	}
	return "", nil
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
