// Package track tracks the stored snapshot of an entity against its live
// values and writes the difference back with a single statement.
//
// An entity is described by a schema.Descriptor. Unsaved entities are
// inserted; loaded entities are updated with the columns that changed
// since their snapshot, and skipped entirely when nothing changed:
//
//	users := schema.MustNamed("User", "users",
//		field.Int64("id").PrimaryKey(),
//		field.String("name"),
//	)
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//		return err
//	}
//	client := track.NewClient(drv)
//	u, err := track.Load(users, []any{int64(1), "a8m"})
//	if err != nil {
//		return err
//	}
//	if err := u.Set("name", "ariel"); err != nil {
//		return err
//	}
//	res, err := client.Save(ctx, u)
//	// UPDATE "users" SET "name" = ? WHERE "id" = ? AND 1 = 1
package track
