// Package schema describes the tables that tracked entities are stored in.
//
// A [Descriptor] holds a table name and the ordered list of its columns.
// Column order is the declaration order of the fields and is preserved by
// every consumer: change sets, INSERT column lists, UPDATE SET clauses and
// WHERE predicates.
//
//	var Foo = schema.MustNamed("Foo", "bar_table",
//		field.Int("foo1").StorageKey("foo_column").PrimaryKey(),
//		field.Int("foo2").StorageKey("bar_column").PrimaryKey(),
//	)
//
// Construction fails with a [SchemaError] if the table has no columns, or if
// two fields resolve to the same column name.
//
// Descriptors can also be loaded from declarative YAML files or derived from
// tagged Go structs; see package [github.com/syssam/track/compiler/load].
package schema
