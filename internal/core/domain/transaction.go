package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the operation a ledger row records.
type TransactionType string

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Transfer   TransactionType = "TRANSFER"
)

// ValidTransactionType reports whether t is one of the three supported types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case Deposit, Withdrawal, Transfer:
		return true
	}
	return false
}

// TransactionStatus drives the ledger state machine.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusVoided    TransactionStatus = "VOIDED"
)

// ValidTransactionStatus reports whether s is one of the three ledger states.
func ValidTransactionStatus(s TransactionStatus) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusVoided:
		return true
	}
	return false
}

// BalanceSnapshot is the recorded balance of one account immediately before
// and after a mutation. Used for audit and for reversal on void.
type BalanceSnapshot struct {
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
}

// Transaction is one ledger row. Amount is immutable after creation; status
// transitions are monotonic except for the explicit Voided-from-Completed
// rollback path.
type Transaction struct {
	ID            int64             `json:"id"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	AccountNumber string            `json:"accountNumber"`           // Source account
	TargetAccount *string           `json:"targetAccount,omitempty"` // Transfer only, distinct from source
	Amount        decimal.Decimal   `json:"amount"`
	Note          string            `json:"note,omitempty"`
	CreatedBy     string            `json:"createdBy"`
	CreatedAt     time.Time         `json:"createdAt"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
	VoidedAt      *time.Time        `json:"voidedAt,omitempty"`
	VoidReason    string            `json:"voidReason,omitempty"`

	// Snapshots are populated iff the transaction was applied, and retained
	// after a void so the reversal stays auditable.
	SourceSnapshot *BalanceSnapshot `json:"sourceSnapshot,omitempty"`
	TargetSnapshot *BalanceSnapshot `json:"targetSnapshot,omitempty"`
}

// CanComplete reports whether the complete transition is allowed.
// Only Pending transactions can be completed.
func (t Transaction) CanComplete() bool {
	return t.Status == StatusPending
}

// CanVoid reports whether the void transition is allowed. Pending and
// Completed transactions can be voided; Voided is terminal.
func (t Transaction) CanVoid() bool {
	return t.Status == StatusPending || t.Status == StatusCompleted
}

// CanUpdateNote reports whether the note may still be edited. Notes are
// frozen once the transaction leaves Pending.
func (t Transaction) CanUpdateNote() bool {
	return t.Status == StatusPending
}

// Applied reports whether the transaction's balance effect has been
// persisted, i.e. whether voiding it must reverse balances.
func (t Transaction) Applied() bool {
	return t.Status == StatusCompleted
}

// AuditAction is the kind of action an audit entry documents.
type AuditAction string

const (
	AuditCreate   AuditAction = "CREATE"
	AuditUpdate   AuditAction = "UPDATE"
	AuditComplete AuditAction = "COMPLETE"
	AuditVoid     AuditAction = "VOID"
	AuditRollback AuditAction = "ROLLBACK"
)

// AuditEntry is one append-only row of the transaction audit trail, written
// in the same unit of work as the state change it documents.
type AuditEntry struct {
	ID            int64       `json:"id"`
	TransactionID int64       `json:"transactionID"`
	Action        AuditAction `json:"action"`
	PerformedBy   string      `json:"performedBy"`
	Reason        string      `json:"reason,omitempty"`
	Details       string      `json:"details,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}
