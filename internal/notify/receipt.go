// Package notify holds the receipt dispatcher consumed by the transaction
// engine. Delivery is best-effort: a failure here is logged by the caller and
// never rolls back the transaction it describes.
package notify

import (
	"context"
	"log/slog"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
)

// LogNotifier writes receipts to the structured log. It stands in for a real
// delivery channel (email, push) while keeping the dispatch contract live.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ portssvc.ReceiptNotifier = (*LogNotifier)(nil)

// NotifyReceipt logs the final snapshot of a completed or voided transaction.
func (n *LogNotifier) NotifyReceipt(ctx context.Context, txn domain.Transaction) error {
	attrs := []any{
		slog.Int64("transaction_id", txn.ID),
		slog.String("type", string(txn.Type)),
		slog.String("status", string(txn.Status)),
		slog.String("account", txn.AccountNumber),
		slog.String("amount", txn.Amount.String()),
	}
	if txn.TargetAccount != nil {
		attrs = append(attrs, slog.String("target_account", *txn.TargetAccount))
	}
	n.logger.InfoContext(ctx, "Transaction receipt", attrs...)
	return nil
}
