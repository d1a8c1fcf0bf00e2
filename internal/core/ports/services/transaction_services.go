package services

import (
	"context"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/SscSPs/account_ledger_app/internal/dto"
)

// TransactionSvcFacade is the transaction processing engine surface.
type TransactionSvcFacade interface {
	// CreateTransaction validates, locks, optionally applies balances (unless
	// deferred) and appends ledger + audit rows, all in one unit of work.
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, actor domain.Actor) (*domain.Transaction, error)

	// AmendTransaction applies an administrative state transition (complete,
	// void, note-update) to an existing transaction.
	AmendTransaction(ctx context.Context, id int64, req dto.AmendTransactionRequest, actor domain.Actor) (*domain.Transaction, error)

	// GetTransaction fetches one ledger row with its audit trail.
	GetTransaction(ctx context.Context, id int64, actor domain.Actor) (*domain.Transaction, []domain.AuditEntry, error)

	// ListTransactions returns a filtered, cursor-paginated ledger listing.
	ListTransactions(ctx context.Context, params dto.ListTransactionsParams, actor domain.Actor) (*dto.ListTransactionsResponse, error)
}
