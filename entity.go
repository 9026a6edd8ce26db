package track

import (
	"fmt"

	"github.com/syssam/track/change"
	"github.com/syssam/track/schema"
)

// State is the lifecycle state of an entity.
type State uint8

// Entity states.
const (
	// Unsaved entities have no snapshot; saving them inserts a row.
	Unsaved State = iota
	// Loaded entities match their snapshot.
	Loaded
	// Dirty entities have live values that differ from their snapshot.
	Dirty
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unsaved:
		return "unsaved"
	case Loaded:
		return "loaded"
	case Dirty:
		return "dirty"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Snapshot is the stored value set of an entity, one value per column. It
// is immutable; a successful save replaces it as a whole.
type Snapshot struct {
	values []any
}

// Len returns the number of values.
func (s Snapshot) Len() int { return len(s.values) }

// At returns the value of the i-th column.
func (s Snapshot) At(i int) any { return s.values[i] }

// Values returns a copy of the snapshot values.
func (s Snapshot) Values() []any { return append([]any(nil), s.values...) }

// Entity holds the live values of a row and its optional snapshot.
//
// An Entity is not safe for concurrent use. In particular, only one save
// may be in flight per entity; callers that share an entity between
// goroutines must serialize mutations and saves themselves.
type Entity struct {
	schema   *schema.Descriptor
	values   []any
	snapshot []any // nil for unsaved entities.
}

// New returns an unsaved entity of the given schema. All values are nil.
func New(d *schema.Descriptor) *Entity {
	return &Entity{schema: d, values: make([]any, d.Len())}
}

// Load returns an entity loaded from the database: the given values become
// both its live values and its snapshot.
func Load(d *schema.Descriptor, values []any) (*Entity, error) {
	if len(values) != d.Len() {
		return nil, &ValueCountError{Table: d.Table(), Want: d.Len(), Got: len(values)}
	}
	return &Entity{
		schema:   d,
		values:   append([]any(nil), values...),
		snapshot: append([]any(nil), values...),
	}, nil
}

// Schema returns the schema descriptor of the entity.
func (e *Entity) Schema() *schema.Descriptor { return e.schema }

// Set sets the live value of the given field.
func (e *Entity) Set(field string, v any) error {
	c, ok := e.schema.Column(field)
	if !ok {
		return &UnknownFieldError{Table: e.schema.Table(), Field: field}
	}
	e.values[c.Ordinal] = v
	return nil
}

// SetValues replaces all live values. values must hold one value per column.
func (e *Entity) SetValues(values []any) error {
	if len(values) != e.schema.Len() {
		return &ValueCountError{Table: e.schema.Table(), Want: e.schema.Len(), Got: len(values)}
	}
	copy(e.values, values)
	return nil
}

// Get returns the live value of the given field.
func (e *Entity) Get(field string) (any, error) {
	c, ok := e.schema.Column(field)
	if !ok {
		return nil, &UnknownFieldError{Table: e.schema.Table(), Field: field}
	}
	return e.values[c.Ordinal], nil
}

// Values returns a copy of the live values, in column order.
func (e *Entity) Values() []any {
	return append([]any(nil), e.values...)
}

// Snapshot returns the snapshot of the entity, and false if the entity was
// never saved or loaded.
func (e *Entity) Snapshot() (Snapshot, bool) {
	if e.snapshot == nil {
		return Snapshot{}, false
	}
	return Snapshot{values: e.snapshot}, true
}

// State returns the lifecycle state of the entity.
func (e *Entity) State() State {
	switch {
	case e.snapshot == nil:
		return Unsaved
	case change.Compute(e.schema, e.snapshot, e.values).Empty():
		return Loaded
	default:
		return Dirty
	}
}

// Changes returns the change set of the entity: Insert for unsaved
// entities, otherwise the ordered list of changed fields.
func (e *Entity) Changes() change.ChangeSet {
	return change.Compute(e.schema, e.snapshot, e.values)
}

// Reset discards the live changes of a loaded entity. It is a no-op for
// unsaved entities.
func (e *Entity) Reset() {
	if e.snapshot != nil {
		copy(e.values, e.snapshot)
	}
}

// commit records a successful save of row: row becomes both the snapshot
// and the live values.
func (e *Entity) commit(row []any) {
	e.snapshot = append([]any(nil), row...)
	copy(e.values, row)
}
