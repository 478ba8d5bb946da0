package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{
	// Migration 1: Replace the plain copy_id index on transactions with a
	// partial unique index so the database itself enforces at most one
	// ACTIVE transaction per copy.
	`DROP INDEX IF EXISTS idx_transactions_copy`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_active_copy
	     ON transactions(copy_id) WHERE status = 'ACTIVE'`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
