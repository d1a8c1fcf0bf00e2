package services

import (
	"context"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
)

// ReceiptNotifier delivers a receipt for a completed or voided transaction.
// Delivery is best-effort: implementations may fail, and callers must never
// roll back the transaction because of it.
type ReceiptNotifier interface {
	NotifyReceipt(ctx context.Context, txn domain.Transaction) error
}
