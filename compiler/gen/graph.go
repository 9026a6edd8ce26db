package gen

import (
	"fmt"
	"go/token"
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/track/compiler/load"
	"github.com/syssam/track/schema/field"
)

// Graph holds the nodes of the generated package.
type Graph struct {
	*Config
	Nodes []*Type
}

// Type is a node of the graph: one entity and its fields.
type Type struct {
	Name   string // Go name of the entity.
	Entity string // entity name of the schema descriptor.
	Table  string
	Fields []*Field
}

// Field is a field of a Type.
type Field struct {
	Name       string // field identifier.
	StorageKey string
	Type       field.Type
	PrimaryKey bool
	Default    any    // declared default value, nil if none.
	Generator  string // name of the default generator, if Default is a func.
	Comment    string
}

// Names of the methods of the embedded track.Entity.
var reserved = map[string]bool{
	"Entity": true, "Schema": true, "Set": true, "Get": true, "Values": true, "SetValues": true,
	"Snapshot": true, "State": true, "Changes": true, "Reset": true,
}

// NewGraph creates a new graph for the given schemas. Schemas are checked
// by converting them to descriptors before any code is generated.
func NewGraph(c *Config, schemas ...*load.Schema) (*Graph, error) {
	g := &Graph{Config: c}
	names := make(map[string]string)
	for _, s := range schemas {
		d, err := s.Descriptor()
		if err != nil {
			return nil, NewSchemaError(s.Name, "", "invalid schema", err)
		}
		t := &Type{Name: typeName(d.Name()), Entity: d.Name(), Table: d.Table()}
		if !token.IsIdentifier(t.Name) {
			return nil, NewSchemaError(d.Name(), "", fmt.Sprintf("%q is not a valid Go type name", t.Name), nil)
		}
		if other, ok := names[t.Name]; ok {
			return nil, NewSchemaError(d.Name(), "", fmt.Sprintf("type name %s conflicts with schema %q", t.Name, other), nil)
		}
		names[t.Name] = d.Name()
		fields := make(map[string]string)
		for i, c := range d.Columns() {
			f := &Field{
				Name:       c.Field,
				StorageKey: s.Fields[i].StorageKey,
				Type:       c.Type,
				PrimaryKey: c.PrimaryKey,
				Comment:    c.Comment(),
			}
			f.Default, _ = c.DeclaredDefault()
			if name, ok := s.Fields[i].Default.(string); ok && f.Default != nil && reflect.TypeOf(f.Default).Kind() == reflect.Func {
				f.Generator = name
			}
			name := f.StructField()
			switch {
			case !token.IsIdentifier(name):
				return nil, NewSchemaError(d.Name(), f.Name, fmt.Sprintf("%q is not a valid Go name", name), nil)
			case reserved[name] || reserved["Set"+name]:
				return nil, NewSchemaError(d.Name(), f.Name, fmt.Sprintf("Go name %s conflicts with a method of track.Entity", name), nil)
			case fields[name] != "":
				return nil, NewSchemaError(d.Name(), f.Name, fmt.Sprintf("Go name %s conflicts with field %q", name, fields[name]), nil)
			}
			fields[name] = f.Name
			t.Fields = append(t.Fields, f)
		}
		g.Nodes = append(g.Nodes, t)
	}
	return g, nil
}

// SchemaVar returns the name of the descriptor variable of the type.
func (t *Type) SchemaVar() string { return t.Name + "Schema" }

// Receiver returns the receiver name of the type methods.
func (t *Type) Receiver() string { return strings.ToLower(t.Name[:1]) }

// FileName returns the name of the file generated for the type.
func (t *Type) FileName() string { return snake(t.Name) + ".go" }

// StructField returns the Go name of the field.
func (f *Field) StructField() string { return pascal(f.Name) }

// Constant returns the name of the field identifier constant.
func (f *Field) Constant(t *Type) string { return t.Name + "Field" + f.StructField() }

// Column returns the column name of the field.
func (f *Field) Column() string {
	if f.StorageKey != "" {
		return f.StorageKey
	}
	return f.Name
}

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{"API", "HTML", "HTTP", "ID", "IP", "JSON", "SQL", "URL", "UUID"} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// typeName returns the Go type name of an entity. Table names used as
// entity names are singularized.
func typeName(s string) string {
	if token.IsIdentifier(s) && !strings.Contains(s, "_") && s == pascal(s) {
		return s
	}
	return pascal(rules.Singularize(s))
}

// pascal converts the given snake case name to pascal case.
//
//	pascal("user_id") = "UserID"
//	pascal("name") = "Name"
func pascal(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		if _, ok := acronyms[strings.ToUpper(w)]; ok {
			words[i] = strings.ToUpper(w)
		} else {
			words[i] = rules.Capitalize(w)
		}
	}
	return strings.Join(words, "")
}

// snake converts the given pascal case name to snake case.
func snake(s string) string { return rules.Underscore(s) }
