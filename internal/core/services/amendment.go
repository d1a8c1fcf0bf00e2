package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/SscSPs/account_ledger_app/internal/middleware"
	"github.com/jackc/pgx/v5"
)

// AmendTransaction applies an administrative state transition to an existing
// transaction: complete a Pending one, void a Pending or Completed one
// (reversing applied balances), or edit the note of a Pending one. The
// transaction row is loaded under an exclusive non-blocking lock so
// concurrent amendments of the same row serialize; all reads and writes of
// one amendment share a single unit of work.
func (s *transactionService) AmendTransaction(ctx context.Context, id int64, req dto.AmendTransactionRequest, actor domain.Actor) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.Int64("transaction_id", id))

	switch req.Action {
	case dto.AmendComplete, dto.AmendVoid:
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: %s requires administrative privilege", apperrors.ErrForbidden, req.Action)
		}
	case dto.AmendNoteUpdate:
		// Ownership is checked against the loaded row below.
	default:
		return nil, fmt.Errorf("%w: unknown amendment action %q", apperrors.ErrValidation, req.Action)
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.ledgerRepo.Rollback(ctx, tx)

	txn, err := s.ledgerRepo.FindTransactionByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, mapContention(err)
	}

	now := time.Now().UTC()
	switch req.Action {
	case dto.AmendComplete:
		err = s.completeInTx(ctx, tx, txn, actor, now)
	case dto.AmendVoid:
		err = s.voidInTx(ctx, tx, txn, actor, req.Reason, now)
	case dto.AmendNoteUpdate:
		err = s.updateNoteInTx(ctx, tx, txn, actor, req.Note, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return nil, mapContention(err)
	}

	logger.Info("Transaction amended",
		slog.String("action", string(req.Action)),
		slog.String("status", string(txn.Status)),
	)

	if req.Action == dto.AmendComplete || req.Action == dto.AmendVoid {
		s.dispatchReceipt(ctx, logger, *txn)
	}
	return txn, nil
}

// completeInTx drives Pending → Completed: re-validates availability,
// re-invokes the balance mutator and stamps the completion.
func (s *transactionService) completeInTx(ctx context.Context, tx pgx.Tx, txn *domain.Transaction, actor domain.Actor, now time.Time) error {
	if !txn.CanComplete() {
		return fmt.Errorf("%w: cannot complete a %s transaction", apperrors.ErrInvalidStateTransition, txn.Status)
	}

	locked, err := s.accountRepo.LockAccounts(ctx, tx, sortedParticipants(*txn))
	if err != nil {
		return mapContention(err)
	}

	mutation, err := applyBalanceEffect(locked, txn.Type, txn.AccountNumber, txn.TargetAccount, txn.Amount)
	if err != nil {
		return err
	}
	if err := s.accountRepo.UpdateBalancesInTx(ctx, tx, mutation.NewBalances, now); err != nil {
		return mapContention(err)
	}

	txn.Status = domain.StatusCompleted
	txn.CompletedAt = &now
	txn.SourceSnapshot = &mutation.Source
	txn.TargetSnapshot = mutation.Target
	if err := s.ledgerRepo.UpdateTransactionStateInTx(ctx, tx, *txn); err != nil {
		return mapContention(err)
	}

	entry := domain.AuditEntry{
		TransactionID: txn.ID,
		Action:        domain.AuditComplete,
		PerformedBy:   actor.AccountNumber,
		Details:       auditDetails(map[string]string{"sourceAfter": mutation.Source.After.String()}),
		CreatedAt:     now,
	}
	return s.ledgerRepo.InsertAuditEntryInTx(ctx, tx, entry)
}

// voidInTx drives Pending/Completed → Voided. A Completed transaction has its
// arithmetic effect reversed through the balance mutator, and the rollback is
// documented with its own audit entry in addition to the void entry, because
// this path both changes status and mutates balances. Snapshots recorded at
// completion are retained.
func (s *transactionService) voidInTx(ctx context.Context, tx pgx.Tx, txn *domain.Transaction, actor domain.Actor, reason string, now time.Time) error {
	if !txn.CanVoid() {
		return fmt.Errorf("%w: cannot void a %s transaction", apperrors.ErrInvalidStateTransition, txn.Status)
	}

	rolledBack := txn.Applied()
	var rollback *balanceMutation
	if rolledBack {
		locked, err := s.accountRepo.LockAccounts(ctx, tx, sortedParticipants(*txn))
		if err != nil {
			return mapContention(err)
		}
		rollback, err = reverseBalanceEffect(locked, *txn)
		if err != nil {
			return err
		}
		if err := s.accountRepo.UpdateBalancesInTx(ctx, tx, rollback.NewBalances, now); err != nil {
			return mapContention(err)
		}
	}

	txn.Status = domain.StatusVoided
	txn.VoidedAt = &now
	txn.VoidReason = reason
	if err := s.ledgerRepo.UpdateTransactionStateInTx(ctx, tx, *txn); err != nil {
		return mapContention(err)
	}

	voidEntry := domain.AuditEntry{
		TransactionID: txn.ID,
		Action:        domain.AuditVoid,
		PerformedBy:   actor.AccountNumber,
		Reason:        reason,
		CreatedAt:     now,
	}
	if err := s.ledgerRepo.InsertAuditEntryInTx(ctx, tx, voidEntry); err != nil {
		return mapContention(err)
	}

	if rolledBack {
		details := map[string]string{"sourceRestored": rollback.NewBalances[txn.AccountNumber].String()}
		if txn.TargetAccount != nil {
			details["targetRestored"] = rollback.NewBalances[*txn.TargetAccount].String()
		}
		rollbackEntry := domain.AuditEntry{
			TransactionID: txn.ID,
			Action:        domain.AuditRollback,
			PerformedBy:   actor.AccountNumber,
			Reason:        reason,
			Details:       auditDetails(details),
			CreatedAt:     now,
		}
		if err := s.ledgerRepo.InsertAuditEntryInTx(ctx, tx, rollbackEntry); err != nil {
			return mapContention(err)
		}
	}
	return nil
}

// updateNoteInTx edits the note of a Pending transaction. Permitted to the
// owning customer or an admin; the note freezes once the row leaves Pending.
func (s *transactionService) updateNoteInTx(ctx context.Context, tx pgx.Tx, txn *domain.Transaction, actor domain.Actor, note *string, now time.Time) error {
	if note == nil {
		return fmt.Errorf("%w: note is required for a note-update", apperrors.ErrValidation)
	}
	if !actor.IsAdmin() && !actor.Owns(txn.AccountNumber) {
		return fmt.Errorf("%w: only the owner or an admin may edit the note", apperrors.ErrForbidden)
	}
	if !txn.CanUpdateNote() {
		return fmt.Errorf("%w: cannot edit the note of a %s transaction", apperrors.ErrInvalidStateTransition, txn.Status)
	}

	previous := txn.Note
	txn.Note = *note
	if err := s.ledgerRepo.UpdateTransactionNoteInTx(ctx, tx, txn.ID, *note); err != nil {
		return mapContention(err)
	}

	entry := domain.AuditEntry{
		TransactionID: txn.ID,
		Action:        domain.AuditUpdate,
		PerformedBy:   actor.AccountNumber,
		Details:       auditDetails(map[string]string{"previousNote": previous, "note": *note}),
		CreatedAt:     now,
	}
	return s.ledgerRepo.InsertAuditEntryInTx(ctx, tx, entry)
}
