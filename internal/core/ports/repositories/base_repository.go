package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines the unit-of-work primitive. Every read-then-write
// sequence of the engine runs between Begin and Commit, with Rollback deferred
// on all exit paths.
type TransactionManager interface {
	// Begin starts a new database transaction
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction
	Rollback(ctx context.Context, tx pgx.Tx) error
}
