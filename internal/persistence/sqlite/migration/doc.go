// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files live in an fs.FS (usually an embedded directory) and follow
// the naming convention {version}_{description}.sql, e.g.
// "001_key_value_store.sql". Applied versions are tracked in the
// schema_migrations table; each migration runs inside its own transaction.
//
// Example usage:
//
//	manager := NewManager(NewScanner(files, "migrations"), NewExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
