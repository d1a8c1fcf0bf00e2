package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the persisted transaction type discriminator.
type TransactionType string

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Transfer   TransactionType = "TRANSFER"
)

// TransactionStatus is the persisted lifecycle state of a transaction.
type TransactionStatus string

const (
	Pending   TransactionStatus = "PENDING"
	Completed TransactionStatus = "COMPLETED"
	Voided    TransactionStatus = "VOIDED"
)

// Transaction represents a ledger row as stored in the database.
// Balance snapshots are captured at the moment the transaction is applied
// and stay frozen afterwards, including through a later void.
type Transaction struct {
	ID                  int64               `db:"id"`
	Type                TransactionType     `db:"type"`
	Status              TransactionStatus   `db:"status"`
	AccountNumber       string              `db:"account_number"`
	TargetAccount       *string             `db:"target_account"`
	Amount              decimal.Decimal     `db:"amount"`
	Note                string              `db:"note"`
	CreatedBy           string              `db:"created_by"`
	CreatedAt           time.Time           `db:"created_at"`
	CompletedAt         *time.Time          `db:"completed_at"`
	VoidedAt            *time.Time          `db:"voided_at"`
	VoidReason          string              `db:"void_reason"`
	SourceBalanceBefore decimal.NullDecimal `db:"source_balance_before"`
	SourceBalanceAfter  decimal.NullDecimal `db:"source_balance_after"`
	TargetBalanceBefore decimal.NullDecimal `db:"target_balance_before"`
	TargetBalanceAfter  decimal.NullDecimal `db:"target_balance_after"`
}

// AuditEntry represents one audit trail row attached to a transaction.
type AuditEntry struct {
	ID            int64     `db:"id"`
	TransactionID int64     `db:"transaction_id"`
	Action        string    `db:"action"`
	PerformedBy   string    `db:"performed_by"`
	Reason        string    `db:"reason"`
	Details       string    `db:"details"`
	CreatedAt     time.Time `db:"created_at"`
}
