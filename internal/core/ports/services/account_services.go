package services

import (
	"context"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/SscSPs/account_ledger_app/internal/dto"
)

// AccountSvcFacade covers account lifecycle and the credential/authorization
// collaborator consumed by the transaction engine.
type AccountSvcFacade interface {
	// Register creates a new customer account with hashed credentials.
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.Account, error)

	// Authenticate checks the password, maintaining the failed-attempt counter
	// and locking the account once the threshold is crossed.
	Authenticate(ctx context.Context, accountNumber, password string) (*domain.Account, error)

	// VerifyPIN checks the transaction PIN of an account.
	VerifyPIN(ctx context.Context, accountNumber, pin string) error

	// GetBalance returns the display snapshot of an account, outside any lock.
	GetBalance(ctx context.Context, accountNumber string) (*domain.Account, error)

	// SetStatus transitions an account's lifecycle state (admin only).
	SetStatus(ctx context.Context, accountNumber string, status domain.AccountStatus, actor domain.Actor) error

	// EnsureAdminAccount provisions the administrative identity at startup if
	// it does not exist yet. Registration never creates admins, so this is
	// the only path that does.
	EnsureAdminAccount(ctx context.Context, accountNumber, name, password, pin string) error
}
