package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByNumber retrieves a specific account by its account number.
	FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccountStatus transitions an account between ACTIVE, LOCKED and ARCHIVED.
	UpdateAccountStatus(ctx context.Context, accountNumber string, status domain.AccountStatus, userID string, now time.Time) error

	// UpdateFailedAttempts stores the failed-login counter.
	UpdateFailedAttempts(ctx context.Context, accountNumber string, attempts int, now time.Time) error
}

// AccountLocker is the lock ordering unit. Implementations must sort the
// account numbers into canonical (lexicographic) order before acquiring an
// exclusive, non-blocking row lock on each, so that all concurrent units of
// work acquire locks in the same order and deadlock is impossible by
// construction. Contention surfaces as apperrors.ErrBusyAccount.
type AccountLocker interface {
	// LockAccounts locks the given rows within tx and returns their current
	// state keyed by account number. Missing rows yield ErrAccountNotFound.
	LockAccounts(ctx context.Context, tx pgx.Tx, accountNumbers []string) (map[string]domain.Account, error)
}

// AccountBalanceWriter applies balance deltas inside an open unit of work.
// Only the balance mutator calls this, and only while holding the locks
// taken by AccountLocker.
type AccountBalanceWriter interface {
	// UpdateBalancesInTx sets the new balances for the given accounts within tx.
	UpdateBalancesInTx(ctx context.Context, tx pgx.Tx, newBalances map[string]decimal.Decimal, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountLocker
	AccountBalanceWriter
}
