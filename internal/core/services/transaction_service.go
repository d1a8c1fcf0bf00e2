package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/account_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/SscSPs/account_ledger_app/internal/middleware"
	"github.com/shopspring/decimal"
)

const defaultListLimit = 20

// maxAmount is the first value the NUMERIC(19,4) amount column cannot hold:
// fifteen integer digits and four decimal places.
var maxAmount = decimal.New(1, 15)

// transactionService is the transaction processing engine: validation, lock
// ordering, balance mutation, ledger state machine and audit trail.
type transactionService struct {
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	accountSvc  portssvc.AccountSvcFacade
	notifier    portssvc.ReceiptNotifier
	lockTimeout time.Duration
}

// NewTransactionService creates the transaction engine. lockTimeout bounds
// every unit of work so a stalled lock cannot hold resources indefinitely.
func NewTransactionService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, accountSvc portssvc.AccountSvcFacade, notifier portssvc.ReceiptNotifier, lockTimeout time.Duration) portssvc.TransactionSvcFacade {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &transactionService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		accountSvc:  accountSvc,
		notifier:    notifier,
		lockTimeout: lockTimeout,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// validateCreateRequest is the pure pre-lock check: type, amount, account
// presence, credential requirement and caller authorization. No side effects.
func validateCreateRequest(req dto.CreateTransactionRequest, actor domain.Actor) (domain.TransactionType, decimal.Decimal, error) {
	txnType := domain.TransactionType(req.Type)
	if !domain.ValidTransactionType(txnType) {
		return "", decimal.Zero, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, req.Type)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return "", decimal.Zero, fmt.Errorf("%w: %q", apperrors.ErrInvalidAmount, req.Amount)
	}
	if amount.Exponent() < -4 || amount.GreaterThanOrEqual(maxAmount) {
		return "", decimal.Zero, fmt.Errorf("%w: %q exceeds the supported precision", apperrors.ErrInvalidAmount, req.Amount)
	}

	if req.AccountNumber == "" {
		return "", decimal.Zero, fmt.Errorf("%w: source account is required", apperrors.ErrMissingAccount)
	}
	if txnType == domain.Transfer {
		if req.TargetAccount == nil || *req.TargetAccount == "" {
			return "", decimal.Zero, fmt.Errorf("%w: target account is required for transfers", apperrors.ErrMissingAccount)
		}
		if *req.TargetAccount == req.AccountNumber {
			return "", decimal.Zero, fmt.Errorf("%w: target account must differ from source", apperrors.ErrMissingAccount)
		}
	}

	// Debits need the account PIN unless the administrative identity acts.
	if (txnType == domain.Withdrawal || txnType == domain.Transfer) && req.PIN == "" && !actor.IsAdmin() {
		return "", decimal.Zero, apperrors.ErrCredentialRequired
	}

	if !actor.Owns(req.AccountNumber) && !actor.IsAdmin() {
		return "", decimal.Zero, fmt.Errorf("%w: caller may only transact on their own account", apperrors.ErrForbidden)
	}

	return txnType, amount, nil
}

// CreateTransaction validates the request, acquires row locks in canonical
// order, applies the balance effect unless deferred, and appends the ledger
// and audit rows in one atomic unit of work. Nothing is persisted on failure.
func (s *transactionService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, actor domain.Actor) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txnType, amount, err := validateCreateRequest(req, actor)
	if err != nil {
		return nil, err
	}

	if (txnType == domain.Withdrawal || txnType == domain.Transfer) && !actor.IsAdmin() {
		if err := s.accountSvc.VerifyPIN(ctx, req.AccountNumber, req.PIN); err != nil {
			logger.Warn("PIN verification failed", slog.String("account", req.AccountNumber))
			return nil, err
		}
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		Type:          txnType,
		Status:        domain.StatusPending,
		AccountNumber: req.AccountNumber,
		TargetAccount: req.TargetAccount,
		Amount:        amount,
		Note:          req.Note,
		CreatedBy:     actor.AccountNumber,
		CreatedAt:     now,
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.ledgerRepo.Rollback(ctx, tx)

	locked, err := s.accountRepo.LockAccounts(ctx, tx, sortedParticipants(txn))
	if err != nil {
		return nil, mapContention(err)
	}

	// Availability is checked for both paths; balance effect only applies on
	// the immediate path.
	for _, number := range participantAccounts(txn) {
		acc, ok := locked[number]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, number)
		}
		if !acc.IsActive() {
			return nil, fmt.Errorf("%w: account %s is %s", apperrors.ErrAccountUnavailable, number, acc.Status)
		}
	}

	if !req.Deferred {
		mutation, err := applyBalanceEffect(locked, txnType, txn.AccountNumber, txn.TargetAccount, amount)
		if err != nil {
			return nil, err
		}
		if err := s.accountRepo.UpdateBalancesInTx(ctx, tx, mutation.NewBalances, now); err != nil {
			return nil, mapContention(err)
		}
		txn.Status = domain.StatusCompleted
		txn.CompletedAt = &now
		txn.SourceSnapshot = &mutation.Source
		txn.TargetSnapshot = mutation.Target
	}

	id, err := s.ledgerRepo.InsertTransactionInTx(ctx, tx, txn)
	if err != nil {
		return nil, mapContention(err)
	}
	txn.ID = id

	entry := domain.AuditEntry{
		TransactionID: id,
		Action:        domain.AuditCreate,
		PerformedBy:   actor.AccountNumber,
		Details:       auditDetails(map[string]string{"type": string(txnType), "amount": amount.String(), "status": string(txn.Status)}),
		CreatedAt:     now,
	}
	if err := s.ledgerRepo.InsertAuditEntryInTx(ctx, tx, entry); err != nil {
		return nil, mapContention(err)
	}

	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return nil, mapContention(err)
	}

	logger.Info("Transaction created",
		slog.Int64("transaction_id", txn.ID),
		slog.String("type", string(txnType)),
		slog.String("status", string(txn.Status)),
	)

	if txn.Status == domain.StatusCompleted {
		s.dispatchReceipt(ctx, logger, txn)
	}
	return &txn, nil
}

// GetTransaction fetches one ledger row with its audit trail. Customers may
// only read transactions touching their own account.
func (s *transactionService) GetTransaction(ctx context.Context, id int64, actor domain.Actor) (*domain.Transaction, []domain.AuditEntry, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !actor.IsAdmin() {
		involved := actor.Owns(txn.AccountNumber) || (txn.TargetAccount != nil && actor.Owns(*txn.TargetAccount))
		if !involved {
			// Obscure existence for unrelated accounts.
			return nil, nil, apperrors.ErrNotFound
		}
	}

	audit, err := s.ledgerRepo.FindAuditEntriesByTransactionID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch audit trail for transaction %d: %w", id, err)
	}
	return txn, audit, nil
}

// ListTransactions returns a filtered, cursor-paginated ledger listing.
// Non-admin callers are pinned to their own account.
func (s *transactionService) ListTransactions(ctx context.Context, params dto.ListTransactionsParams, actor domain.Actor) (*dto.ListTransactionsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsAdmin() {
		if params.AccountNumber != "" && !actor.Owns(params.AccountNumber) {
			return nil, fmt.Errorf("%w: caller may only list their own transactions", apperrors.ErrForbidden)
		}
		params.AccountNumber = actor.AccountNumber
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := portsrepo.TransactionFilter{
		AccountNumber: params.AccountNumber,
		Type:          domain.TransactionType(params.Type),
		Status:        domain.TransactionStatus(params.Status),
		From:          params.From,
		To:            params.To,
		Search:        params.Search,
	}
	if params.Type != "" && !domain.ValidTransactionType(filter.Type) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, params.Type)
	}
	if params.Status != "" && !domain.ValidTransactionStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown transaction status %q", apperrors.ErrValidation, params.Status)
	}

	txns, nextToken, err := s.ledgerRepo.ListTransactions(ctx, filter, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list transactions", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

// dispatchReceipt hands the final snapshot to the notifier. Best-effort and
// fire-and-forget: delivery failure is logged, never propagated.
func (s *transactionService) dispatchReceipt(ctx context.Context, logger *slog.Logger, txn domain.Transaction) {
	if s.notifier == nil {
		return
	}
	go func(txn domain.Transaction) {
		if err := s.notifier.NotifyReceipt(context.WithoutCancel(ctx), txn); err != nil {
			logger.Warn("Receipt delivery failed",
				slog.Int64("transaction_id", txn.ID),
				slog.String("error", err.Error()),
			)
		}
	}(txn)
}

// sortedParticipants returns the accounts a transaction touches in canonical
// lock order. The repository sorts again before locking; sorting here keeps
// the invariant visible at the call site and deterministic in tests.
func sortedParticipants(txn domain.Transaction) []string {
	numbers := participantAccounts(txn)
	sort.Strings(numbers)
	return numbers
}

// mapContention folds unit-of-work timeouts into the transient BusyAccount
// class so callers get a single retryable signal for contention.
func mapContention(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: unit of work timed out", apperrors.ErrBusyAccount)
	}
	return err
}

func auditDetails(fields map[string]string) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(b)
}
