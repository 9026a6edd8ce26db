// Package load reads schema declarations from YAML files and tagged Go
// structs, and converts them to schema descriptors.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/syssam/track/schema"
	"github.com/syssam/track/schema/field"
)

// Schema represents a schema declaration that was loaded from a YAML file
// or a Go struct.
type Schema struct {
	Name   string   `yaml:"name,omitempty" json:"name,omitempty"`
	Table  string   `yaml:"table" json:"table"`
	Pos    string   `yaml:"-" json:"-"`
	Fields []*Field `yaml:"fields" json:"fields"`
}

// Field represents a field declaration.
type Field struct {
	Name       string `yaml:"name" json:"name"`
	StorageKey string `yaml:"column,omitempty" json:"column,omitempty"`
	Type       string `yaml:"type" json:"type"`
	PrimaryKey bool   `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	// Default is a literal value, or the name of a generator: "uuid" for
	// uuid fields and "now" for time fields.
	Default any    `yaml:"default,omitempty" json:"default,omitempty"`
	Comment string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// Default generators by field type.
var generators = map[field.Type]map[string]any{
	field.TypeUUID: {"uuid": uuid.New},
	field.TypeTime: {"now": time.Now},
}

// File is the document layout of a YAML schema file.
type File struct {
	Schemas []*Schema `yaml:"schemas"`
}

// NewField creates a loaded field from field descriptor.
func NewField(fd *field.Descriptor) (*Field, error) {
	if fd.Err != nil {
		return nil, fmt.Errorf("field %q: %v", fd.Name, fd.Err)
	}
	f := &Field{
		Name:       fd.Name,
		StorageKey: fd.StorageKey,
		Type:       fd.Type.String(),
		PrimaryKey: fd.PrimaryKey,
		Comment:    fd.Comment,
	}
	if fd.Default != nil {
		if reflect.TypeOf(fd.Default).Kind() == reflect.Func {
			name, ok := generatorName(fd.Type, fd.Default)
			if !ok {
				return nil, fmt.Errorf("field %q: default func can not be declared", fd.Name)
			}
			f.Default = name
		} else {
			f.Default = fd.Default
		}
	}
	return f, nil
}

func generatorName(t field.Type, fn any) (string, bool) {
	p := reflect.ValueOf(fn).Pointer()
	for name, g := range generators[t] {
		if reflect.ValueOf(g).Pointer() == p {
			return name, true
		}
	}
	return "", false
}

// NewSchema creates a loaded schema from a schema descriptor.
func NewSchema(d *schema.Descriptor) (*Schema, error) {
	s := &Schema{Name: d.Name(), Table: d.Table()}
	for _, c := range d.Columns() {
		fd := field.New(c.Field, c.Type).StorageKey(storageKey(c)).Comment(c.Comment())
		if c.PrimaryKey {
			fd.PrimaryKey()
		}
		if def, ok := c.DeclaredDefault(); ok {
			fd.Default(def)
		}
		f, err := NewField(fd.Descriptor())
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", s.Name, err)
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

func storageKey(c schema.Column) string {
	if c.Name == c.Field {
		return ""
	}
	return c.Name
}

// MarshalSchema encodes the schema descriptor into a YAML document that
// can be decoded into the Schema objects declared above.
func MarshalSchema(d *schema.Descriptor) ([]byte, error) {
	s, err := NewSchema(d)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(s)
}

// UnmarshalSchema decodes the given buffer to a loaded schema.
func UnmarshalSchema(buf []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// Read decodes all schemas of a YAML schema file.
func Read(r io.Reader) ([]*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for _, s := range f.Schemas {
		if err := s.check(); err != nil {
			return nil, err
		}
	}
	return f.Schemas, nil
}

// Config holds the configuration for loading schemas.
type Config struct {
	// Path is a YAML schema file, or a directory whose *.yaml and *.yml
	// files are loaded in lexical order.
	Path string
	// Names limits the loaded schemas to the given entity names. Schemas
	// without a name are selected by their table.
	Names []string
}

// Load loads the schemas of the configured path.
func (c *Config) Load() ([]*Schema, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	var schemas []*Schema
	for _, path := range files {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		loaded, err := Read(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("load: %s: %w", path, err)
		}
		for i, s := range loaded {
			s.Pos = fmt.Sprintf("%s:%d", path, i)
			if len(c.Names) == 0 || slices.Contains(c.Names, s.name()) {
				schemas = append(schemas, s)
			}
		}
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("load: no schemas found in %s", c.Path)
	}
	return schemas, nil
}

func (c *Config) files() ([]string, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if !info.IsDir() {
		return []string{c.Path}, nil
	}
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(c.Path, pattern))
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// Descriptors loads the schemas of the configured path and converts them
// to schema descriptors.
func (c *Config) Descriptors() ([]*schema.Descriptor, error) {
	schemas, err := c.Load()
	if err != nil {
		return nil, err
	}
	ds := make([]*schema.Descriptor, 0, len(schemas))
	for _, s := range schemas {
		d, err := s.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("load: %s: %w", s.Pos, err)
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// Descriptor converts the loaded schema to a schema descriptor.
func (s *Schema) Descriptor() (*schema.Descriptor, error) {
	fields := make([]field.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		fd, err := f.builder()
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", s.name(), err)
		}
		fields = append(fields, fd)
	}
	return schema.Named(s.name(), s.Table, fields...)
}

func (s *Schema) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Table
}

func (s *Schema) check() error {
	for _, f := range s.Fields {
		if _, err := f.builder(); err != nil {
			return fmt.Errorf("schema %q: %w", s.name(), err)
		}
	}
	return nil
}

func (f *Field) builder() (*field.Builder, error) {
	t, err := field.ParseType(f.Type)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	b := field.New(f.Name, t).StorageKey(f.StorageKey).Comment(f.Comment)
	if f.PrimaryKey {
		b.PrimaryKey()
	}
	if f.Default != nil {
		v, err := f.defaultValue(t)
		if err != nil {
			return nil, err
		}
		b.Default(v)
	}
	return b, nil
}

// defaultValue converts the decoded default to the Go type of the field.
func (f *Field) defaultValue(t field.Type) (any, error) {
	if name, ok := f.Default.(string); ok {
		if g, ok := generators[t][name]; ok {
			return g, nil
		}
	}
	v, err := t.Convert(f.Default)
	if err != nil {
		return nil, fmt.Errorf("field %q: default: %w", f.Name, err)
	}
	return v, nil
}
