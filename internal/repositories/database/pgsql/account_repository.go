package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/account_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/account_ledger_app/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// pgcode for lock_not_available, raised by FOR UPDATE NOWAIT on a held row.
const pgLockNotAvailable = "55P03"

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// Helper to convert domain.Account to models.Account for DB storage
func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountNumber:  d.AccountNumber,
		Name:           d.Name,
		Balance:        d.Balance,
		Status:         models.AccountStatus(d.Status),
		Role:           models.AccountRole(d.Role),
		PINHash:        d.PINHash,
		PasswordHash:   d.PasswordHash,
		FailedAttempts: d.FailedAttempts,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// Helper to convert models.Account from DB to domain.Account
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountNumber:  m.AccountNumber,
		Name:           m.Name,
		Balance:        m.Balance,
		Status:         domain.AccountStatus(m.Status),
		Role:           domain.AccountRole(m.Role),
		PINHash:        m.PINHash,
		PasswordHash:   m.PasswordHash,
		FailedAttempts: m.FailedAttempts,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const accountColumns = `account_number, name, balance, status, role, pin_hash, password_hash, failed_attempts, created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountNumber,
		&m.Name,
		&m.Balance,
		&m.Status,
		&m.Role,
		&m.PINHash,
		&m.PasswordHash,
		&m.FailedAttempts,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := toModelAccount(account)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`

	_, err := r.pool.Exec(ctx, query,
		m.AccountNumber,
		m.Name,
		m.Balance,
		m.Status,
		m.Role,
		m.PINHash,
		m.PasswordHash,
		m.FailedAttempts,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("%w: account %s already exists", apperrors.ErrDuplicate, m.AccountNumber)
			}
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountNumber, err)
	}
	return nil
}

// FindAccountByNumber retrieves an account by its account number.
func (r *PgxAccountRepository) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1;
	`

	m, err := scanAccount(r.pool.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountNumber, err)
	}

	d := toDomainAccount(m)
	return &d, nil
}

// UpdateAccountStatus transitions an account between lifecycle states.
func (r *PgxAccountRepository) UpdateAccountStatus(ctx context.Context, accountNumber string, status domain.AccountStatus, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_number = $1;
	`

	cmdTag, err := r.pool.Exec(ctx, query, accountNumber, models.AccountStatus(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status for account %s: %w", accountNumber, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// UpdateFailedAttempts stores the consecutive failed-login counter.
func (r *PgxAccountRepository) UpdateFailedAttempts(ctx context.Context, accountNumber string, attempts int, now time.Time) error {
	query := `
		UPDATE accounts
		SET failed_attempts = $2, last_updated_at = $3
		WHERE account_number = $1;
	`

	cmdTag, err := r.pool.Exec(ctx, query, accountNumber, attempts, now)
	if err != nil {
		return fmt.Errorf("failed to update failed attempts for account %s: %w", accountNumber, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// LockAccounts acquires an exclusive row lock on each of the given accounts
// and returns their current state. Account numbers are sorted into canonical
// order first so every unit of work acquires locks in the same sequence,
// which rules out deadlock between concurrent transactions. NOWAIT turns a
// held row into an immediate ErrBusyAccount instead of a queued wait.
// Must be called within a transaction.
func (r *PgxAccountRepository) LockAccounts(ctx context.Context, tx pgx.Tx, accountNumbers []string) (map[string]domain.Account, error) {
	if len(accountNumbers) == 0 {
		return map[string]domain.Account{}, nil
	}

	sorted := make([]string, len(accountNumbers))
	copy(sorted, accountNumbers)
	sort.Strings(sorted)

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE NOWAIT;
	`

	accountsMap := make(map[string]domain.Account, len(sorted))
	for _, accountNumber := range sorted {
		m, err := scanAccount(tx.QueryRow(ctx, query, accountNumber))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: account %s", apperrors.ErrAccountNotFound, accountNumber)
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
				slog.WarnContext(ctx, "Row lock contention on account", "account_number", accountNumber)
				return nil, fmt.Errorf("%w: account %s is locked by another transaction", apperrors.ErrBusyAccount, accountNumber)
			}
			return nil, fmt.Errorf("failed to lock account %s: %w", accountNumber, err)
		}
		accountsMap[m.AccountNumber] = toDomainAccount(m)
	}

	return accountsMap, nil
}

// UpdateBalancesInTx sets the new balances for multiple accounts within a
// transaction. Callers must already hold the row locks via LockAccounts.
func (r *PgxAccountRepository) UpdateBalancesInTx(ctx context.Context, tx pgx.Tx, newBalances map[string]decimal.Decimal, now time.Time) error {
	if len(newBalances) == 0 {
		return nil // Nothing to update
	}

	query := `
		UPDATE accounts
		SET balance = $2, last_updated_at = $3
		WHERE account_number = $1;
	`

	batch := &pgx.Batch{}
	accountNumbers := make([]string, 0, len(newBalances))
	for accountNumber, balance := range newBalances {
		batch.Queue(query, accountNumber, balance, now)
		accountNumbers = append(accountNumbers, accountNumber)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for account %s: %w", accountNumbers[i], err)
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrAccountNotFound, accountNumbers[i])
			}
		}
	}

	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}

	return batchErr
}
