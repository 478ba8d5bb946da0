// Package store holds the data-access layer: package-level functions over a
// shared *sql.DB. Multi-entity circulation operations that must be atomic
// live in the circulation package and drive these helpers inside a single
// transaction.
package store

import (
	"context"
	"database/sql"
)

// Execer is the write surface shared by *sql.DB and *sql.Tx, so helpers can
// run standalone or inside a circulation transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is the read surface shared by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
