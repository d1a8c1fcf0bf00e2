package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/account_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/account_ledger_app/internal/models"
	"github.com/SscSPs/account_ledger_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for transaction and audit data.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

func toModelTransaction(d domain.Transaction) models.Transaction {
	m := models.Transaction{
		ID:            d.ID,
		Type:          models.TransactionType(d.Type),
		Status:        models.TransactionStatus(d.Status),
		AccountNumber: d.AccountNumber,
		TargetAccount: d.TargetAccount,
		Amount:        d.Amount,
		Note:          d.Note,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt,
		CompletedAt:   d.CompletedAt,
		VoidedAt:      d.VoidedAt,
		VoidReason:    d.VoidReason,
	}
	if d.SourceSnapshot != nil {
		m.SourceBalanceBefore = decimal.NullDecimal{Decimal: d.SourceSnapshot.Before, Valid: true}
		m.SourceBalanceAfter = decimal.NullDecimal{Decimal: d.SourceSnapshot.After, Valid: true}
	}
	if d.TargetSnapshot != nil {
		m.TargetBalanceBefore = decimal.NullDecimal{Decimal: d.TargetSnapshot.Before, Valid: true}
		m.TargetBalanceAfter = decimal.NullDecimal{Decimal: d.TargetSnapshot.After, Valid: true}
	}
	return m
}

func toDomainTransaction(m models.Transaction) domain.Transaction {
	d := domain.Transaction{
		ID:            m.ID,
		Type:          domain.TransactionType(m.Type),
		Status:        domain.TransactionStatus(m.Status),
		AccountNumber: m.AccountNumber,
		TargetAccount: m.TargetAccount,
		Amount:        m.Amount,
		Note:          m.Note,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
		CompletedAt:   m.CompletedAt,
		VoidedAt:      m.VoidedAt,
		VoidReason:    m.VoidReason,
	}
	if m.SourceBalanceBefore.Valid && m.SourceBalanceAfter.Valid {
		d.SourceSnapshot = &domain.BalanceSnapshot{
			Before: m.SourceBalanceBefore.Decimal,
			After:  m.SourceBalanceAfter.Decimal,
		}
	}
	if m.TargetBalanceBefore.Valid && m.TargetBalanceAfter.Valid {
		d.TargetSnapshot = &domain.BalanceSnapshot{
			Before: m.TargetBalanceBefore.Decimal,
			After:  m.TargetBalanceAfter.Decimal,
		}
	}
	return d
}

const transactionColumns = `id, type, status, account_number, target_account, amount, note, created_by, created_at, completed_at, voided_at, void_reason, source_balance_before, source_balance_after, target_balance_before, target_balance_after`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.ID,
		&m.Type,
		&m.Status,
		&m.AccountNumber,
		&m.TargetAccount,
		&m.Amount,
		&m.Note,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.CompletedAt,
		&m.VoidedAt,
		&m.VoidReason,
		&m.SourceBalanceBefore,
		&m.SourceBalanceAfter,
		&m.TargetBalanceBefore,
		&m.TargetBalanceAfter,
	)
	return m, err
}

// InsertTransactionInTx appends a ledger row and returns its assigned id.
func (r *PgxLedgerRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) (int64, error) {
	m := toModelTransaction(txn)

	query := `
		INSERT INTO transactions (type, status, account_number, target_account, amount, note, created_by, created_at, completed_at, voided_at, void_reason, source_balance_before, source_balance_after, target_balance_before, target_balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id;
	`

	var id int64
	err := tx.QueryRow(ctx, query,
		m.Type,
		m.Status,
		m.AccountNumber,
		m.TargetAccount,
		m.Amount,
		m.Note,
		m.CreatedBy,
		m.CreatedAt,
		m.CompletedAt,
		m.VoidedAt,
		m.VoidReason,
		m.SourceBalanceBefore,
		m.SourceBalanceAfter,
		m.TargetBalanceBefore,
		m.TargetBalanceAfter,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, nil
}

// FindTransactionByID retrieves a single ledger row.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1;
	`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %d: %w", id, err)
	}

	d := toDomainTransaction(m)
	return &d, nil
}

// FindTransactionByIDForUpdate loads a ledger row under an exclusive lock so
// concurrent amendments of the same transaction serialize. NOWAIT turns a
// held row into an immediate ErrBusyAccount. Must be called within a
// transaction.
func (r *PgxLedgerRepository) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
		FOR UPDATE NOWAIT;
	`

	m, err := scanTransaction(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, fmt.Errorf("%w: transaction %d is being amended by another request", apperrors.ErrBusyAccount, id)
		}
		return nil, fmt.Errorf("failed to lock transaction %d: %w", id, err)
	}

	d := toDomainTransaction(m)
	return &d, nil
}

// UpdateTransactionStateInTx persists a state transition: status, stamps,
// void reason and balance snapshots.
func (r *PgxLedgerRepository) UpdateTransactionStateInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	m := toModelTransaction(txn)

	query := `
		UPDATE transactions
		SET status = $2, completed_at = $3, voided_at = $4, void_reason = $5,
		    source_balance_before = $6, source_balance_after = $7,
		    target_balance_before = $8, target_balance_after = $9
		WHERE id = $1;
	`

	cmdTag, err := tx.Exec(ctx, query,
		m.ID,
		m.Status,
		m.CompletedAt,
		m.VoidedAt,
		m.VoidReason,
		m.SourceBalanceBefore,
		m.SourceBalanceAfter,
		m.TargetBalanceBefore,
		m.TargetBalanceAfter,
	)
	if err != nil {
		return fmt.Errorf("failed to update state of transaction %d: %w", m.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateTransactionNoteInTx replaces the note of a transaction.
func (r *PgxLedgerRepository) UpdateTransactionNoteInTx(ctx context.Context, tx pgx.Tx, id int64, note string) error {
	query := `
		UPDATE transactions
		SET note = $2
		WHERE id = $1;
	`

	cmdTag, err := tx.Exec(ctx, query, id, note)
	if err != nil {
		return fmt.Errorf("failed to update note of transaction %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListTransactions retrieves a filtered, paginated list of ledger rows using
// token-based pagination. It returns the rows, a token for the next page (if
// any), and an error.
func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, filter portsrepo.TransactionFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + transactionColumns + `
		FROM transactions
	`

	filterClause := `WHERE 1=1`
	args := []interface{}{}

	addArg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.AccountNumber != "" {
		p := addArg(filter.AccountNumber)
		filterClause += ` AND (account_number = ` + p + ` OR target_account = ` + p + `)`
	}
	if filter.Type != "" {
		filterClause += ` AND type = ` + addArg(string(filter.Type))
	}
	if filter.Status != "" {
		filterClause += ` AND status = ` + addArg(string(filter.Status))
	}
	if filter.From != nil {
		filterClause += ` AND created_at >= ` + addArg(*filter.From)
	}
	if filter.To != nil {
		filterClause += ` AND created_at <= ` + addArg(*filter.To)
	}
	if filter.Search != "" {
		filterClause += ` AND note ILIKE ` + addArg("%"+filter.Search+"%")
	}

	// Ordering is crucial and must be stable: created_at DESC with id as a
	// tie-breaker, matching the cursor tuple.
	orderByClause := `ORDER BY created_at DESC, id DESC`

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		// Tuple comparison is concise and efficient in Postgres
		filterClause += ` AND (created_at, id) < (` + addArg(lastCreatedAt) + `, ` + addArg(lastID) + `)`
	}

	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT " + addArg(fetchLimit) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions", err)
	}
	defer rows.Close()

	modelTxns := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", scanErr)
		}
		modelTxns = append(modelTxns, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	var nextTokenVal *string
	results := modelTxns
	if len(modelTxns) > limit {
		// The token points to the last item included in this response page;
		// the next query starts after it.
		lastTxn := modelTxns[limit-1]
		token := pagination.EncodeToken(lastTxn.CreatedAt, lastTxn.ID)
		nextTokenVal = &token
		results = modelTxns[:limit]
	}

	domainTxns := make([]domain.Transaction, len(results))
	for i, m := range results {
		domainTxns[i] = toDomainTransaction(m)
	}

	return domainTxns, nextTokenVal, nil
}

// InsertAuditEntryInTx appends one audit row within the same unit of work as
// the state change it documents.
func (r *PgxLedgerRepository) InsertAuditEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditEntry) error {
	query := `
		INSERT INTO transaction_audit (transaction_id, action, performed_by, reason, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	_, err := tx.Exec(ctx, query,
		entry.TransactionID,
		string(entry.Action),
		entry.PerformedBy,
		entry.Reason,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry for transaction %d: %w", entry.TransactionID, err)
	}
	return nil
}

// FindAuditEntriesByTransactionID returns the audit trail oldest-first.
func (r *PgxLedgerRepository) FindAuditEntriesByTransactionID(ctx context.Context, transactionID int64) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, transaction_id, action, performed_by, reason, details, created_at
		FROM transaction_audit
		WHERE transaction_id = $1
		ORDER BY id;
	`

	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries for transaction %d: %w", transactionID, err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var m models.AuditEntry
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.Action, &m.PerformedBy, &m.Reason, &m.Details, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry row: %w", err)
		}
		entries = append(entries, domain.AuditEntry{
			ID:            m.ID,
			TransactionID: m.TransactionID,
			Action:        domain.AuditAction(m.Action),
			PerformedBy:   m.PerformedBy,
			Reason:        m.Reason,
			Details:       m.Details,
			CreatedAt:     m.CreatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entry rows: %w", err)
	}

	return entries, nil
}
