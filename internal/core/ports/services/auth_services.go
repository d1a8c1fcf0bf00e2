package services

import (
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
)

// TokenSvcFacade issues and parses bearer tokens for authenticated accounts.
type TokenSvcFacade interface {
	// IssueToken creates a signed JWT for the account. Returns the token and
	// its lifetime in seconds.
	IssueToken(account *domain.Account) (string, int64, error)
}
