package services

import (
	"fmt"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// balanceMutation is the computed arithmetic effect of one transaction over
// locked account rows: the balances to persist and the before/after snapshot
// pairs recorded on the ledger row.
type balanceMutation struct {
	NewBalances map[string]decimal.Decimal
	Source      domain.BalanceSnapshot
	Target      *domain.BalanceSnapshot
}

// applyBalanceEffect computes new balances for a deposit, withdrawal or
// transfer against the given locked rows. It is the single source of truth
// for ledger arithmetic: immediate creation, the amendment "complete"
// transition and (inverted, via reverseBalanceEffect) the void rollback all
// pass through here.
//
// Preconditions enforced: every participating account must be ACTIVE, and a
// debit must be covered by the source balance.
func applyBalanceEffect(locked map[string]domain.Account, txnType domain.TransactionType, source string, target *string, amount decimal.Decimal) (*balanceMutation, error) {
	src, ok := locked[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, source)
	}
	if !src.IsActive() {
		return nil, fmt.Errorf("%w: account %s is %s", apperrors.ErrAccountUnavailable, source, src.Status)
	}

	mutation := &balanceMutation{NewBalances: make(map[string]decimal.Decimal, 2)}

	switch txnType {
	case domain.Deposit:
		// No ceiling check on credits.
		mutation.Source = domain.BalanceSnapshot{Before: src.Balance, After: src.Balance.Add(amount)}

	case domain.Withdrawal:
		if amount.GreaterThan(src.Balance) {
			return nil, fmt.Errorf("%w: balance %s, requested %s", apperrors.ErrInsufficientFunds, src.Balance, amount)
		}
		mutation.Source = domain.BalanceSnapshot{Before: src.Balance, After: src.Balance.Sub(amount)}

	case domain.Transfer:
		if target == nil {
			return nil, fmt.Errorf("%w: transfer requires a target account", apperrors.ErrMissingAccount)
		}
		tgt, ok := locked[*target]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, *target)
		}
		if !tgt.IsActive() {
			return nil, fmt.Errorf("%w: account %s is %s", apperrors.ErrAccountUnavailable, *target, tgt.Status)
		}
		if amount.GreaterThan(src.Balance) {
			return nil, fmt.Errorf("%w: balance %s, requested %s", apperrors.ErrInsufficientFunds, src.Balance, amount)
		}
		mutation.Source = domain.BalanceSnapshot{Before: src.Balance, After: src.Balance.Sub(amount)}
		mutation.Target = &domain.BalanceSnapshot{Before: tgt.Balance, After: tgt.Balance.Add(amount)}
		mutation.NewBalances[*target] = mutation.Target.After

	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidType, txnType)
	}

	mutation.NewBalances[source] = mutation.Source.After
	return mutation, nil
}

// reverseBalanceEffect computes the rollback of an applied transaction by
// running the opposite operation through applyBalanceEffect: a deposit is
// reversed as a withdrawal, a withdrawal as a deposit, and a transfer as a
// transfer in the opposite direction. This keeps the no-negative-balance and
// availability preconditions in force for the rollback legs too.
func reverseBalanceEffect(locked map[string]domain.Account, txn domain.Transaction) (*balanceMutation, error) {
	switch txn.Type {
	case domain.Deposit:
		return applyBalanceEffect(locked, domain.Withdrawal, txn.AccountNumber, nil, txn.Amount)
	case domain.Withdrawal:
		return applyBalanceEffect(locked, domain.Deposit, txn.AccountNumber, nil, txn.Amount)
	case domain.Transfer:
		if txn.TargetAccount == nil {
			return nil, fmt.Errorf("%w: transfer %d has no target account", apperrors.ErrInternal, txn.ID)
		}
		return applyBalanceEffect(locked, domain.Transfer, *txn.TargetAccount, &txn.AccountNumber, txn.Amount)
	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidType, txn.Type)
	}
}

// participantAccounts returns the distinct account numbers a transaction
// touches: one for deposit/withdrawal, two for transfer.
func participantAccounts(txn domain.Transaction) []string {
	if txn.Type == domain.Transfer && txn.TargetAccount != nil {
		return []string{txn.AccountNumber, *txn.TargetAccount}
	}
	return []string{txn.AccountNumber}
}
