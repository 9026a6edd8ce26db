package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/track/schema"
)

// readValues reads the row of d from a YAML file. The file is either a
// mapping from field identifiers to values, or a sequence of values in
// column order. Fields missing from a mapping are nil.
func readValues(path string, d *schema.Descriptor) ([]any, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	values := make([]any, d.Len())
	if len(doc.Content) == 0 {
		return values, nil
	}
	switch node := doc.Content[0]; node.Kind {
	case yaml.MappingNode:
		var m map[string]any
		if err := node.Decode(&m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for name, v := range m {
			c, ok := d.Column(name)
			if !ok {
				return nil, fmt.Errorf("%s: unknown field %q in %s", path, name, d.Table())
			}
			values[c.Ordinal] = v
		}
	case yaml.SequenceNode:
		var list []any
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(list) != d.Len() {
			return nil, fmt.Errorf("%s: expect %d values, got %d", path, d.Len(), len(list))
		}
		copy(values, list)
	default:
		return nil, fmt.Errorf("%s: expect a mapping or a sequence of values", path)
	}
	for i, c := range d.Columns() {
		v, err := c.Type.Convert(values[i])
		if err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", path, c.Field, err)
		}
		values[i] = v
	}
	return values, nil
}
