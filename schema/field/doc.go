// Package field provides fluent builders for declaring the columns of a
// tracked entity.
//
// A field has a name (the identifier used by Entity.Set and Entity.Get)
// and a column name. The column name defaults to the field name:
//
//	field.Int("foo1").StorageKey("foo_column") // field foo1, column foo_column
//	field.String("email")                      // field email, column email
//
// # Field Types
//
//	field.Bool("active")
//	field.Int("count")
//	field.Int64("big_number")
//	field.Uint64("flags")
//	field.Float("price")
//	field.String("name")
//	field.Bytes("data")
//	field.Time("created_at")
//	field.UUID("id")
//	field.Any("payload") // bound as-is
//
// # Primary Keys
//
// Marking more than one field declares a composite key. Key order is the
// declaration order and is the order of the WHERE predicates in UPDATE
// statements:
//
//	field.Int("tenant_id").PrimaryKey()
//	field.Int("id").PrimaryKey()
//
// # Defaults
//
// Defaults are applied on insert to fields that were never set:
//
//	field.String("status").Default("active")
//	field.Time("created_at").Default(time.Now)
//	field.UUID("id").PrimaryKey().Default(uuid.New)
package field
