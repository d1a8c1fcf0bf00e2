package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/core/services"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/SscSPs/account_ledger_app/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testPassword = "correct-horse-battery"
	testPIN      = "4321"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.AccountSvcFacade
	stored   domain.Account
}

func (suite *AccountServiceTestSuite) SetupSuite() {
	passwordHash, err := utils.HashPassword(testPassword)
	suite.Require().NoError(err)
	pinHash, err := utils.HashPassword(testPIN)
	suite.Require().NoError(err)

	suite.stored = domain.Account{
		AccountNumber: customerNumber,
		Name:          "Test Customer",
		Balance:       decimal.NewFromInt(100),
		Status:        domain.AccountActive,
		Role:          domain.RoleCustomer,
		PasswordHash:  passwordHash,
		PINHash:       pinHash,
	}
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockRepo, 3)
}

func (suite *AccountServiceTestSuite) storedCopy() *domain.Account {
	account := suite.stored
	return &account
}

// --- Register ---

func (suite *AccountServiceTestSuite) TestRegister_Success() {
	ctx := context.Background()
	req := dto.RegisterRequest{
		Name:           "New Customer",
		Password:       "a-strong-password",
		PIN:            "1234",
		OpeningBalance: "250.50",
	}

	suite.mockRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Status == domain.AccountActive &&
			a.Role == domain.RoleCustomer &&
			a.Balance.Equal(decimal.RequireFromString("250.50")) &&
			len(a.AccountNumber) == 10 &&
			a.PasswordHash != "" && a.PasswordHash != req.Password &&
			a.PINHash != "" && a.PINHash != req.PIN
	})).Return(nil).Once()

	account, err := suite.service.Register(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.True(utils.CheckPasswordHash("a-strong-password", account.PasswordHash), "password is stored hashed, not plain")
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestRegister_NegativeOpeningBalanceRejected() {
	ctx := context.Background()
	req := dto.RegisterRequest{Name: "X", Password: "a-strong-password", PIN: "1234", OpeningBalance: "-10"}

	account, err := suite.service.Register(ctx, req)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(account)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

// --- EnsureAdminAccount ---

func (suite *AccountServiceTestSuite) TestEnsureAdminAccount_CreatesWhenMissing() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByNumber", ctx, adminNumber).Return(nil, apperrors.ErrAccountNotFound).Once()
	suite.mockRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.AccountNumber == adminNumber &&
			a.Role == domain.RoleAdmin &&
			a.Status == domain.AccountActive &&
			a.Balance.IsZero() &&
			a.PasswordHash != "" && a.PasswordHash != "admin-password" &&
			a.PINHash != "" && a.PINHash != "9999"
	})).Return(nil).Once()

	err := suite.service.EnsureAdminAccount(ctx, adminNumber, "Operations", "admin-password", "9999")

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestEnsureAdminAccount_ExistingAdminUntouched() {
	ctx := context.Background()
	existing := &domain.Account{AccountNumber: adminNumber, Role: domain.RoleAdmin, Status: domain.AccountActive}
	suite.mockRepo.On("FindAccountByNumber", ctx, adminNumber).Return(existing, nil).Once()

	err := suite.service.EnsureAdminAccount(ctx, adminNumber, "Operations", "admin-password", "9999")

	suite.Require().NoError(err)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestEnsureAdminAccount_NumberTakenByCustomer() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByNumber", ctx, customerNumber).Return(suite.storedCopy(), nil).Once()

	err := suite.service.EnsureAdminAccount(ctx, customerNumber, "Operations", "admin-password", "9999")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestEnsureAdminAccount_ConcurrentCreateTolerated() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByNumber", ctx, adminNumber).Return(nil, apperrors.ErrAccountNotFound).Once()
	suite.mockRepo.On("SaveAccount", ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	err := suite.service.EnsureAdminAccount(ctx, adminNumber, "Operations", "admin-password", "9999")

	suite.Require().NoError(err)
}

func (suite *AccountServiceTestSuite) TestEnsureAdminAccount_RequiresCredentials() {
	ctx := context.Background()

	err := suite.service.EnsureAdminAccount(ctx, adminNumber, "Operations", "", "")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindAccountByNumber", mock.Anything, mock.Anything)
}

// --- Authenticate ---

func (suite *AccountServiceTestSuite) TestAuthenticate_Success() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByNumber", ctx, customerNumber).Return(suite.storedCopy(), nil).Once()

	account, err := suite.service.Authenticate(ctx, customerNumber, testPassword)

	suite.Require().NoError(err)
	suite.Equal(customerNumber, account.AccountNumber)
}

func (suite *AccountServiceTestSuite) TestAuthenticate_UnknownAccountObscured() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByNumber", ctx, "0000000000").Return(nil, apperrors.ErrAccountNotFound).Once()

	account, err := suite.service.Authenticate(ctx, "0000000000", testPassword)

	// Same error as a bad password so account existence doesn't leak.
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.Nil(account)
}

func (suite *AccountServiceTestSuite) TestAuthenticate_WrongPasswordIncrementsCounter() {
	ctx := context.Background()
	stored := suite.storedCopy()
	stored.FailedAttempts = 0
	suite.mockRepo.On("FindAccountByNumber", ctx, customerNumber).Return(stored, nil).Once()
	suite.mockRepo.On("UpdateFailedAttempts", ctx, customerNumber, 1, mock.Anything).Return(nil).Once()

	account, err := suite.service.Authenticate(ctx, customerNumber, "wrong-password")

	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.Nil(account)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateAccountStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestAuthenticate_LocksAtThreshold() {
	ctx := context.Background()
	stored := suite.storedCopy()
	stored.FailedAttempts = 2 // this failure is the third
	suite.mockRepo.On("FindAccountByNumber", ctx, customerNumber).Return(stored, nil).Once()
	suite.mockRepo.On("UpdateFailedAttempts", ctx, customerNumber, 3, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("UpdateAccountStatus", ctx, customerNumber, domain.AccountLocked, customerNumber, mock.Anything).Return(nil).Once()

	_, err := suite.service.Authenticate(ctx, customerNumber, "wrong-password")

	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestAuthenticate_SuccessResetsCounter() {
	ctx := context.Background()
	stored := suite.storedCopy()
	stored.FailedAttempts = 2
	suite.mockRepo.On("FindAccountByNumber", ctx, customerNumber).Return(stored, nil).Once()
	suite.mockRepo.On("UpdateFailedAttempts", ctx, customerNumber, 0, mock.Anything).Return(nil).Once()

	account, err := suite.service.Authenticate(ctx, customerNumber, testPassword)

	suite.Require().NoError(err)
	suite.NotNil(account)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestAuthenticate_LockedAccountRefused() {
	ctx := context.Background()
	stored := suite.storedCopy()
	stored.Status = domain.AccountLocked
	suite.mockRepo.On("FindAccountByNumber", ctx, customerNumber).Return(stored, nil).Once()

	account, err := suite.service.Authenticate(ctx, customerNumber, testPassword)

	suite.ErrorIs(err, apperrors.ErrAccountUnavailable)
	suite.Nil(account)
}

// --- VerifyPIN / SetStatus ---

func (suite *AccountServiceTestSuite) TestVerifyPIN() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByNumber", ctx, customerNumber).Return(suite.storedCopy(), nil).Twice()

	suite.NoError(suite.service.VerifyPIN(ctx, customerNumber, testPIN))
	suite.ErrorIs(suite.service.VerifyPIN(ctx, customerNumber, "0000"), apperrors.ErrForbidden)
}

func (suite *AccountServiceTestSuite) TestSetStatus_RequiresAdmin() {
	ctx := context.Background()
	customer := domain.Actor{AccountNumber: customerNumber, Role: domain.RoleCustomer}

	err := suite.service.SetStatus(ctx, otherNumber, domain.AccountArchived, customer)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateAccountStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestSetStatus_UnlockResetsCounter() {
	ctx := context.Background()
	admin := domain.Actor{AccountNumber: adminNumber, Role: domain.RoleAdmin}
	suite.mockRepo.On("UpdateAccountStatus", ctx, customerNumber, domain.AccountActive, adminNumber, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("UpdateFailedAttempts", ctx, customerNumber, 0, mock.Anything).Return(nil).Once()

	err := suite.service.SetStatus(ctx, customerNumber, domain.AccountActive, admin)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
