package dto

import (
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterRequest creates a new customer account.
type RegisterRequest struct {
	Name           string `json:"name" binding:"required"`
	Password       string `json:"password" binding:"required,min=8"`
	PIN            string `json:"pin" binding:"required,len=4,numeric"`
	OpeningBalance string `json:"openingBalance,omitempty"`
}

// LoginRequest authenticates an account holder.
type LoginRequest struct {
	AccountNumber string `json:"accountNumber" binding:"required,account_number"`
	Password      string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccountNumber string `json:"accountNumber"`
	Token         string `json:"token"`
	ExpiresIn     int64  `json:"expiresIn"` // Seconds
}

// AccountResponse is the API shape of an account.
type AccountResponse struct {
	AccountNumber string          `json:"accountNumber"`
	Name          string          `json:"name"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
}

// BalanceResponse is the read-only balance snapshot returned outside any
// transaction lock.
type BalanceResponse struct {
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
}

// ToAccountResponse converts a domain.Account to its API shape.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		Balance:       a.Balance,
		Status:        string(a.Status),
	}
}
