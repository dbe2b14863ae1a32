// Package store persists the certification engine's entities. It offers an
// in-memory implementation for tests and development and a PostgreSQL
// implementation for production, both satisfying the service.Store interface.
//
// Stores are pure I/O: conditional inserts enforce uniqueness facts (one
// active process per candidate, one evaluation per process, global folio
// uniqueness) and report them as sentinel errors; every other rule lives in
// the service layer.
package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts *sql.DB and *sql.Tx so the same queries serve both plain
// calls and transaction-scoped stores.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
