package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	"github.com/SscSPs/account_ledger_app/internal/core/services"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AmendmentTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	mockAccountSvc  *MockAccountService
	mockNotifier    *MockNotifier
	service         portssvcTransaction
	customer        domain.Actor
	admin           domain.Actor
}

func (suite *AmendmentTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockNotifier = new(MockNotifier)
	suite.service = services.NewTransactionService(suite.mockLedgerRepo, suite.mockAccountRepo, suite.mockAccountSvc, suite.mockNotifier, 5*time.Second)
	suite.customer = domain.Actor{AccountNumber: customerNumber, Role: domain.RoleCustomer}
	suite.admin = domain.Actor{AccountNumber: adminNumber, Role: domain.RoleAdmin}
}

func (suite *AmendmentTestSuite) expectUnitOfWork(commits bool) {
	suite.mockLedgerRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockLedgerRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil).Maybe()
	if commits {
		suite.mockLedgerRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	}
}

func pendingDeposit(id int64, amount int64) *domain.Transaction {
	return &domain.Transaction{
		ID:            id,
		Type:          domain.Deposit,
		Status:        domain.StatusPending,
		AccountNumber: customerNumber,
		Amount:        decimal.NewFromInt(amount),
		CreatedAt:     time.Now().UTC().Add(-time.Hour),
	}
}

func completedDeposit(id int64, amount int64) *domain.Transaction {
	txn := pendingDeposit(id, amount)
	txn.Status = domain.StatusCompleted
	completed := time.Now().UTC().Add(-time.Minute)
	txn.CompletedAt = &completed
	txn.SourceSnapshot = &domain.BalanceSnapshot{
		Before: decimal.NewFromInt(100),
		After:  decimal.NewFromInt(100 + amount),
	}
	return txn
}

// --- complete ---

func (suite *AmendmentTestSuite) TestAmend_CompletePendingAppliesBalances() {
	ctx := context.Background()
	stored := pendingDeposit(5, 40)

	suite.expectUnitOfWork(true)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()
	suite.mockAccountRepo.On("LockAccounts", mock.Anything, mock.Anything, []string{customerNumber}).
		Return(lockedAccounts(activeAccount(customerNumber, 100)), nil).Once()
	suite.mockAccountRepo.On("UpdateBalancesInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(balances map[string]decimal.Decimal) bool {
		return balances[customerNumber].Equal(decimal.NewFromInt(140))
	}), mock.Anything).Return(nil).Once()
	suite.mockLedgerRepo.On("UpdateTransactionStateInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Status == domain.StatusCompleted && txn.CompletedAt != nil
	})).Return(nil).Once()
	suite.mockLedgerRepo.On("InsertAuditEntryInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e domain.AuditEntry) bool {
		return e.Action == domain.AuditComplete
	})).Return(nil).Once()
	suite.mockNotifier.On("NotifyReceipt", mock.Anything, mock.Anything).Return(nil).Maybe()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendComplete}, suite.admin)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, txn.Status)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AmendmentTestSuite) TestAmend_CompleteCompletedRejected() {
	ctx := context.Background()
	stored := completedDeposit(5, 40)

	suite.expectUnitOfWork(false)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendComplete}, suite.admin)

	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)
	suite.Nil(txn)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *AmendmentTestSuite) TestAmend_CompleteRequiresAdmin() {
	ctx := context.Background()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendComplete}, suite.customer)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(txn)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *AmendmentTestSuite) TestAmend_CompleteInsufficientFundsStaysPending() {
	ctx := context.Background()
	stored := &domain.Transaction{
		ID:            6,
		Type:          domain.Withdrawal,
		Status:        domain.StatusPending,
		AccountNumber: customerNumber,
		Amount:        decimal.NewFromInt(500),
	}

	suite.expectUnitOfWork(false)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(6)).Return(stored, nil).Once()
	suite.mockAccountRepo.On("LockAccounts", mock.Anything, mock.Anything, []string{customerNumber}).
		Return(lockedAccounts(activeAccount(customerNumber, 100)), nil).Once()

	txn, err := suite.service.AmendTransaction(ctx, 6, dto.AmendTransactionRequest{Action: dto.AmendComplete}, suite.admin)

	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.Nil(txn)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "UpdateTransactionStateInTx", mock.Anything, mock.Anything, mock.Anything)
}

// --- void ---

func (suite *AmendmentTestSuite) TestAmend_VoidCompletedReversesBalances() {
	ctx := context.Background()
	stored := completedDeposit(5, 40)

	suite.expectUnitOfWork(true)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()
	suite.mockAccountRepo.On("LockAccounts", mock.Anything, mock.Anything, []string{customerNumber}).
		Return(lockedAccounts(activeAccount(customerNumber, 140)), nil).Once()
	suite.mockAccountRepo.On("UpdateBalancesInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(balances map[string]decimal.Decimal) bool {
		return balances[customerNumber].Equal(decimal.NewFromInt(100))
	}), mock.Anything).Return(nil).Once()
	suite.mockLedgerRepo.On("UpdateTransactionStateInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(txn domain.Transaction) bool {
		// Snapshots recorded at completion stay frozen through the void.
		return txn.Status == domain.StatusVoided && txn.VoidedAt != nil && txn.VoidReason == "fraud" &&
			txn.SourceSnapshot != nil && txn.SourceSnapshot.After.Equal(decimal.NewFromInt(140))
	})).Return(nil).Once()
	suite.mockLedgerRepo.On("InsertAuditEntryInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e domain.AuditEntry) bool {
		return e.Action == domain.AuditVoid && e.Reason == "fraud"
	})).Return(nil).Once()
	suite.mockLedgerRepo.On("InsertAuditEntryInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e domain.AuditEntry) bool {
		return e.Action == domain.AuditRollback
	})).Return(nil).Once()
	suite.mockNotifier.On("NotifyReceipt", mock.Anything, mock.Anything).Return(nil).Maybe()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendVoid, Reason: "fraud"}, suite.admin)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusVoided, txn.Status)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AmendmentTestSuite) TestAmend_VoidPendingSkipsBalances() {
	ctx := context.Background()
	stored := pendingDeposit(5, 40)

	suite.expectUnitOfWork(true)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()
	suite.mockLedgerRepo.On("UpdateTransactionStateInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Status == domain.StatusVoided
	})).Return(nil).Once()
	suite.mockLedgerRepo.On("InsertAuditEntryInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e domain.AuditEntry) bool {
		return e.Action == domain.AuditVoid
	})).Return(nil).Once()
	suite.mockNotifier.On("NotifyReceipt", mock.Anything, mock.Anything).Return(nil).Maybe()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendVoid, Reason: "customer request"}, suite.admin)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusVoided, txn.Status)
	// A never-applied transaction has no balance effect to reverse.
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "LockAccounts", mock.Anything, mock.Anything, mock.Anything)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateBalancesInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AmendmentTestSuite) TestAmend_VoidVoidedRejected() {
	ctx := context.Background()
	stored := pendingDeposit(5, 40)
	stored.Status = domain.StatusVoided

	suite.expectUnitOfWork(false)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendVoid}, suite.admin)

	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)
	suite.Nil(txn)
}

// --- note-update ---

func (suite *AmendmentTestSuite) TestAmend_NoteUpdateByOwner() {
	ctx := context.Background()
	stored := pendingDeposit(5, 40)
	stored.Note = "old"
	note := "new note"

	suite.expectUnitOfWork(true)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()
	suite.mockLedgerRepo.On("UpdateTransactionNoteInTx", mock.Anything, mock.Anything, int64(5), note).Return(nil).Once()
	suite.mockLedgerRepo.On("InsertAuditEntryInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e domain.AuditEntry) bool {
		return e.Action == domain.AuditUpdate
	})).Return(nil).Once()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendNoteUpdate, Note: &note}, suite.customer)

	suite.Require().NoError(err)
	suite.Equal(note, txn.Note)
	// Note edits never notify.
	suite.mockNotifier.AssertNotCalled(suite.T(), "NotifyReceipt", mock.Anything, mock.Anything)
}

func (suite *AmendmentTestSuite) TestAmend_NoteUpdateOnCompletedRejected() {
	ctx := context.Background()
	stored := completedDeposit(5, 40)
	note := "too late"

	suite.expectUnitOfWork(false)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendNoteUpdate, Note: &note}, suite.customer)

	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)
	suite.Nil(txn)
}

func (suite *AmendmentTestSuite) TestAmend_NoteUpdateByStrangerForbidden() {
	ctx := context.Background()
	stored := pendingDeposit(5, 40)
	stored.AccountNumber = otherNumber
	note := "not mine"

	suite.expectUnitOfWork(false)
	suite.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(5)).Return(stored, nil).Once()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: dto.AmendNoteUpdate, Note: &note}, suite.customer)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(txn)
}

func (suite *AmendmentTestSuite) TestAmend_UnknownActionRejected() {
	ctx := context.Background()

	txn, err := suite.service.AmendTransaction(ctx, 5, dto.AmendTransactionRequest{Action: "reverse"}, suite.admin)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(txn)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func TestAmendmentTestSuite(t *testing.T) {
	suite.Run(t, new(AmendmentTestSuite))
}
