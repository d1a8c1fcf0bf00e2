package dto

import (
	"time"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the payload for POST /transactions.
// Amount arrives as a string so callers cannot smuggle float rounding in.
type CreateTransactionRequest struct {
	Type          string  `json:"type" binding:"required"`
	AccountNumber string  `json:"accountNumber" binding:"required,account_number"`
	TargetAccount *string `json:"targetAccount,omitempty" binding:"omitempty,account_number"`
	Amount        string  `json:"amount" binding:"required"`
	Note          string  `json:"note,omitempty"`
	PIN           string  `json:"pin,omitempty"`
	Deferred      bool    `json:"deferred,omitempty"`
}

// AmendAction is the administrative action applied to an existing transaction.
type AmendAction string

const (
	AmendComplete   AmendAction = "complete"
	AmendVoid       AmendAction = "void"
	AmendNoteUpdate AmendAction = "note-update"
)

// AmendTransactionRequest is the payload for POST /transactions/:id/amend.
type AmendTransactionRequest struct {
	Action AmendAction `json:"action" binding:"required"`
	Reason string      `json:"reason,omitempty"`
	Note   *string     `json:"note,omitempty"`
}

// ListTransactionsParams are the query parameters for GET /transactions.
type ListTransactionsParams struct {
	AccountNumber string     `form:"account"`
	Type          string     `form:"type"`
	Status        string     `form:"status"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Search        string     `form:"q"`
	Limit         int        `form:"limit"`
	NextToken     *string    `form:"nextToken"`
}

// BalanceSnapshotResponse mirrors domain.BalanceSnapshot for API output.
type BalanceSnapshotResponse struct {
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
}

// TransactionResponse is the API shape of one ledger row.
type TransactionResponse struct {
	ID             int64                    `json:"id"`
	Type           string                   `json:"type"`
	Status         string                   `json:"status"`
	AccountNumber  string                   `json:"accountNumber"`
	TargetAccount  *string                  `json:"targetAccount,omitempty"`
	Amount         decimal.Decimal          `json:"amount"`
	Note           string                   `json:"note,omitempty"`
	CreatedBy      string                   `json:"createdBy"`
	CreatedAt      time.Time                `json:"createdAt"`
	CompletedAt    *time.Time               `json:"completedAt,omitempty"`
	VoidedAt       *time.Time               `json:"voidedAt,omitempty"`
	VoidReason     string                   `json:"voidReason,omitempty"`
	SourceSnapshot *BalanceSnapshotResponse `json:"sourceSnapshot,omitempty"`
	TargetSnapshot *BalanceSnapshotResponse `json:"targetSnapshot,omitempty"`
}

// AuditEntryResponse is the API shape of one audit trail row.
type AuditEntryResponse struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performedBy"`
	Reason      string    `json:"reason,omitempty"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListTransactionsResponse is the paginated listing envelope.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// GetTransactionResponse combines a ledger row with its audit trail.
type GetTransactionResponse struct {
	Transaction TransactionResponse  `json:"transaction"`
	Audit       []AuditEntryResponse `json:"audit"`
}

// ToTransactionResponse converts a domain.Transaction to its API shape.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Status:        string(t.Status),
		AccountNumber: t.AccountNumber,
		TargetAccount: t.TargetAccount,
		Amount:        t.Amount,
		Note:          t.Note,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		VoidedAt:      t.VoidedAt,
		VoidReason:    t.VoidReason,
	}
	if t.SourceSnapshot != nil {
		resp.SourceSnapshot = &BalanceSnapshotResponse{Before: t.SourceSnapshot.Before, After: t.SourceSnapshot.After}
	}
	if t.TargetSnapshot != nil {
		resp.TargetSnapshot = &BalanceSnapshotResponse{Before: t.TargetSnapshot.Before, After: t.TargetSnapshot.After}
	}
	return resp
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		responses[i] = ToTransactionResponse(&txn)
	}
	return responses
}

// ToAuditEntryResponses converts a slice of domain audit entries.
func ToAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = AuditEntryResponse{
			ID:          e.ID,
			Action:      string(e.Action),
			PerformedBy: e.PerformedBy,
			Reason:      e.Reason,
			Details:     e.Details,
			CreatedAt:   e.CreatedAt,
		}
	}
	return responses
}
