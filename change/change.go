// Package change computes the field-level difference between the stored
// snapshot of an entity and its live values.
package change

import (
	"fmt"
	"strings"

	"github.com/syssam/track/schema"
)

// Kind is the kind of a ChangeSet.
type Kind uint8

// ChangeSet kinds.
const (
	KindInsert Kind = iota + 1
	KindUpdate
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "Insert"
	case KindUpdate:
		return "Update"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Record is a single changed field.
type Record struct {
	Field  string // field identifier.
	Column string // column name, as configured in the schema.
	Value  any    // live value.
	Old    any    // snapshot value; only meaningful when HasOld is true.
	HasOld bool
}

// String implements the fmt.Stringer interface.
func (r Record) String() string {
	if !r.HasOld {
		return fmt.Sprintf("%s(%s)=%v", r.Field, r.Column, r.Value)
	}
	return fmt.Sprintf("%s(%s)=%v->%v", r.Field, r.Column, r.Old, r.Value)
}

// ChangeSet is either an Insert, or an Update holding the ordered list of
// changed fields. An Update with no records means "nothing to save".
type ChangeSet struct {
	kind    Kind
	records []Record
}

// Insert returns the ChangeSet of an entity that has no snapshot.
func Insert() ChangeSet {
	return ChangeSet{kind: KindInsert}
}

// Update returns an Update ChangeSet holding the given records.
func Update(records ...Record) ChangeSet {
	return ChangeSet{kind: KindUpdate, records: append([]Record(nil), records...)}
}

// Kind returns the kind of the change set.
func (c ChangeSet) Kind() Kind { return c.kind }

// IsInsert reports if the change set is an Insert.
func (c ChangeSet) IsInsert() bool { return c.kind == KindInsert }

// IsUpdate reports if the change set is an Update.
func (c ChangeSet) IsUpdate() bool { return c.kind == KindUpdate }

// Empty reports if the change set is an Update without records.
func (c ChangeSet) Empty() bool {
	return c.kind == KindUpdate && len(c.records) == 0
}

// Len returns the number of changed fields of an Update.
func (c ChangeSet) Len() int { return len(c.records) }

// Records returns a copy of the records of an Update, in column
// declaration order.
func (c ChangeSet) Records() []Record {
	return append([]Record(nil), c.records...)
}

// Changes returns the records of a non-empty Update. It returns false for
// Insert and for an empty Update, and it is the only way for statement
// builders to reach the records of an update.
func (c ChangeSet) Changes() (Changes, bool) {
	if c.kind != KindUpdate || len(c.records) == 0 {
		return Changes{}, false
	}
	return Changes{records: c.records}, true
}

// String implements the fmt.Stringer interface.
func (c ChangeSet) String() string {
	if c.kind != KindUpdate {
		return c.kind.String()
	}
	rs := make([]string, len(c.records))
	for i, r := range c.records {
		rs[i] = r.String()
	}
	return "Update([" + strings.Join(rs, ", ") + "])"
}

// Changes is a non-empty list of records. Values of this type are only
// produced by ChangeSet.Changes.
type Changes struct {
	records []Record
}

// Len returns the number of records.
func (c Changes) Len() int { return len(c.records) }

// Each calls fn for every record, in order.
func (c Changes) Each(fn func(int, Record)) {
	for i, r := range c.records {
		fn(i, r)
	}
}

// Compute diffs the live values against the snapshot. A nil snapshot
// yields Insert. Otherwise, the columns are visited in declaration order
// and every column whose live value differs from its snapshot value is
// recorded. Compute never fails; values missing from a short slice are
// treated as nil.
func Compute(d *schema.Descriptor, snapshot, live []any) ChangeSet {
	if snapshot == nil {
		return Insert()
	}
	cs := ChangeSet{kind: KindUpdate}
	for i, c := range d.Columns() {
		nv, ov := at(live, i), at(snapshot, i)
		if Equal(nv, ov) {
			continue
		}
		cs.records = append(cs.records, Record{
			Field:  c.Field,
			Column: c.Name,
			Value:  nv,
			Old:    ov,
			HasOld: true,
		})
	}
	return cs
}

func at(vs []any, i int) any {
	if i < len(vs) {
		return vs[i]
	}
	return nil
}
