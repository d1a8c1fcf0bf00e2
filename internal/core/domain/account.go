package domain

import (
	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountLocked   AccountStatus = "LOCKED"
	AccountArchived AccountStatus = "ARCHIVED"
)

// AccountRole separates customers from operators. Admins may amend any
// transaction and act on any account without supplying the account PIN.
type AccountRole string

const (
	RoleCustomer AccountRole = "CUSTOMER"
	RoleAdmin    AccountRole = "ADMIN"
)

// Account represents a customer balance row. The balance is only ever
// changed by the balance mutator while the row is held under an exclusive
// lock inside a single unit of work.
type Account struct {
	AccountNumber  string          `json:"accountNumber"` // Primary key, immutable
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	Status         AccountStatus   `json:"status"`
	Role           AccountRole     `json:"role"`
	PINHash        string          `json:"-"`
	PasswordHash   string          `json:"-"`
	FailedAttempts int             `json:"-"`
	AuditFields
}

// IsActive reports whether the account can participate in transactions.
func (a Account) IsActive() bool {
	return a.Status == AccountActive
}
