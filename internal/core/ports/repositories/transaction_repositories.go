package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionFilter narrows a ledger listing. Zero values mean "no filter".
type TransactionFilter struct {
	AccountNumber string
	Type          domain.TransactionType
	Status        domain.TransactionStatus
	From          *time.Time
	To            *time.Time
	Search        string // Matched against the note, case-insensitive
}

// LedgerReader defines read operations for transaction data.
type LedgerReader interface {
	// FindTransactionByID retrieves a single ledger row.
	FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error)

	// ListTransactions retrieves a filtered, cursor-paginated list ordered by
	// (created_at, id) descending. It returns the rows, a token for the next
	// page, and an error.
	ListTransactions(ctx context.Context, filter TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// LedgerWriter defines write operations for transaction data. All writers
// operate inside an open unit of work so the ledger is never observed out of
// sync with the balances it describes.
type LedgerWriter interface {
	// InsertTransactionInTx appends a ledger row and returns its assigned id.
	InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) (int64, error)

	// FindTransactionByIDForUpdate loads a ledger row under an exclusive,
	// non-blocking lock so concurrent amendments serialize.
	FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error)

	// UpdateTransactionStateInTx persists a state transition: status, stamps,
	// void reason and balance snapshots.
	UpdateTransactionStateInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error

	// UpdateTransactionNoteInTx replaces the note of a Pending transaction.
	UpdateTransactionNoteInTx(ctx context.Context, tx pgx.Tx, id int64, note string) error
}

// AuditReader defines read operations for the audit trail.
type AuditReader interface {
	// FindAuditEntriesByTransactionID returns the trail oldest-first.
	FindAuditEntriesByTransactionID(ctx context.Context, transactionID int64) ([]domain.AuditEntry, error)
}

// AuditWriter appends audit entries; the trail has no update or delete path.
type AuditWriter interface {
	// InsertAuditEntryInTx appends one audit row within the same unit of work
	// as the state change it documents.
	InsertAuditEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditEntry) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
	AuditReader
	AuditWriter
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with unit-of-work
// capabilities.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
