package models

import (
	"github.com/shopspring/decimal"
)

// AccountStatus mirrors the lifecycle states of an account row.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusLocked   AccountStatus = "LOCKED"
	AccountStatusArchived AccountStatus = "ARCHIVED"
)

// AccountRole distinguishes regular customers from administrators.
type AccountRole string

const (
	AccountRoleCustomer AccountRole = "CUSTOMER"
	AccountRoleAdmin    AccountRole = "ADMIN"
)

// Account represents an account row as stored in the database.
type Account struct {
	AccountNumber  string          `db:"account_number"`
	Name           string          `db:"name"`
	Balance        decimal.Decimal `db:"balance"`
	Status         AccountStatus   `db:"status"`
	Role           AccountRole     `db:"role"`
	PINHash        string          `db:"pin_hash"`
	PasswordHash   string          `db:"password_hash"`
	FailedAttempts int             `db:"failed_attempts"`
	AuditFields
}
