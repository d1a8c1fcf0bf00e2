package services

import (
	"testing"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeAccount(number string, balance int64) domain.Account {
	return domain.Account{
		AccountNumber: number,
		Balance:       decimal.NewFromInt(balance),
		Status:        domain.AccountActive,
	}
}

func TestApplyBalanceEffect_Deposit(t *testing.T) {
	locked := map[string]domain.Account{"A": activeAccount("A", 100)}

	mutation, err := applyBalanceEffect(locked, domain.Deposit, "A", nil, decimal.NewFromInt(40))
	require.NoError(t, err)

	assert.True(t, mutation.NewBalances["A"].Equal(decimal.NewFromInt(140)))
	assert.True(t, mutation.Source.Before.Equal(decimal.NewFromInt(100)))
	assert.True(t, mutation.Source.After.Equal(decimal.NewFromInt(140)))
	assert.Nil(t, mutation.Target)
}

func TestApplyBalanceEffect_Withdrawal(t *testing.T) {
	locked := map[string]domain.Account{"A": activeAccount("A", 100)}

	mutation, err := applyBalanceEffect(locked, domain.Withdrawal, "A", nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, mutation.NewBalances["A"].IsZero(), "withdrawing the full balance leaves exactly zero")
}

func TestApplyBalanceEffect_WithdrawalInsufficientFunds(t *testing.T) {
	locked := map[string]domain.Account{"A": activeAccount("A", 50)}

	_, err := applyBalanceEffect(locked, domain.Withdrawal, "A", nil, decimal.NewFromInt(51))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
}

func TestApplyBalanceEffect_Transfer(t *testing.T) {
	locked := map[string]domain.Account{
		"A": activeAccount("A", 100),
		"B": activeAccount("B", 10),
	}
	target := "B"

	mutation, err := applyBalanceEffect(locked, domain.Transfer, "A", &target, decimal.NewFromInt(30))
	require.NoError(t, err)

	assert.True(t, mutation.NewBalances["A"].Equal(decimal.NewFromInt(70)))
	assert.True(t, mutation.NewBalances["B"].Equal(decimal.NewFromInt(40)))
	require.NotNil(t, mutation.Target)
	assert.True(t, mutation.Target.Before.Equal(decimal.NewFromInt(10)))
	assert.True(t, mutation.Target.After.Equal(decimal.NewFromInt(40)))

	// Net effect of a transfer is zero.
	total := mutation.NewBalances["A"].Add(mutation.NewBalances["B"])
	assert.True(t, total.Equal(decimal.NewFromInt(110)))
}

func TestApplyBalanceEffect_TransferInactiveTarget(t *testing.T) {
	locked := map[string]domain.Account{
		"A": activeAccount("A", 100),
		"B": {AccountNumber: "B", Balance: decimal.NewFromInt(10), Status: domain.AccountArchived},
	}
	target := "B"

	_, err := applyBalanceEffect(locked, domain.Transfer, "A", &target, decimal.NewFromInt(30))
	assert.ErrorIs(t, err, apperrors.ErrAccountUnavailable)
}

func TestApplyBalanceEffect_InactiveSource(t *testing.T) {
	locked := map[string]domain.Account{
		"A": {AccountNumber: "A", Balance: decimal.NewFromInt(100), Status: domain.AccountLocked},
	}

	_, err := applyBalanceEffect(locked, domain.Deposit, "A", nil, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, apperrors.ErrAccountUnavailable)
}

func TestReverseBalanceEffect_Deposit(t *testing.T) {
	// After a 40 deposit the balance is 140; the reversal withdraws 40.
	locked := map[string]domain.Account{"A": activeAccount("A", 140)}
	txn := domain.Transaction{
		Type:          domain.Deposit,
		AccountNumber: "A",
		Amount:        decimal.NewFromInt(40),
	}

	rollback, err := reverseBalanceEffect(locked, txn)
	require.NoError(t, err)
	assert.True(t, rollback.NewBalances["A"].Equal(decimal.NewFromInt(100)))
}

func TestReverseBalanceEffect_DepositAlreadySpent(t *testing.T) {
	// The credited funds were since withdrawn; reversing the deposit would
	// drive the balance negative, so the rollback is refused.
	locked := map[string]domain.Account{"A": activeAccount("A", 10)}
	txn := domain.Transaction{
		Type:          domain.Deposit,
		AccountNumber: "A",
		Amount:        decimal.NewFromInt(40),
	}

	_, err := reverseBalanceEffect(locked, txn)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
}

func TestReverseBalanceEffect_Transfer(t *testing.T) {
	// A transferred 30 to B; the reversal moves 30 from B back to A.
	locked := map[string]domain.Account{
		"A": activeAccount("A", 70),
		"B": activeAccount("B", 40),
	}
	target := "B"
	txn := domain.Transaction{
		Type:          domain.Transfer,
		AccountNumber: "A",
		TargetAccount: &target,
		Amount:        decimal.NewFromInt(30),
	}

	rollback, err := reverseBalanceEffect(locked, txn)
	require.NoError(t, err)
	assert.True(t, rollback.NewBalances["A"].Equal(decimal.NewFromInt(100)))
	assert.True(t, rollback.NewBalances["B"].Equal(decimal.NewFromInt(10)))
}

func TestParticipantAccounts(t *testing.T) {
	target := "B"
	transfer := domain.Transaction{Type: domain.Transfer, AccountNumber: "A", TargetAccount: &target}
	assert.ElementsMatch(t, []string{"A", "B"}, participantAccounts(transfer))

	deposit := domain.Transaction{Type: domain.Deposit, AccountNumber: "A"}
	assert.Equal(t, []string{"A"}, participantAccounts(deposit))
}

func TestSortedParticipants(t *testing.T) {
	target := "1000000001"
	transfer := domain.Transaction{Type: domain.Transfer, AccountNumber: "9000000009", TargetAccount: &target}
	assert.Equal(t, []string{"1000000001", "9000000009"}, sortedParticipants(transfer), "lock order is canonical regardless of direction")

	reverse := domain.Transaction{Type: domain.Transfer, AccountNumber: "1000000001", TargetAccount: strPtr("9000000009")}
	assert.Equal(t, sortedParticipants(transfer), sortedParticipants(reverse))
}

func strPtr(s string) *string { return &s }
