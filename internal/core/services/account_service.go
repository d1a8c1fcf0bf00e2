package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/account_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/SscSPs/account_ledger_app/internal/middleware"
	"github.com/SscSPs/account_ledger_app/internal/utils"
	"github.com/shopspring/decimal"
)

const accountNumberLength = 10

// accountService implements account lifecycle and the credential check
// collaborator.
type accountService struct {
	accountRepo     portsrepo.AccountRepositoryFacade
	maxFailedLogins int
}

// NewAccountService creates an AccountService. maxFailedLogins is the number
// of consecutive password failures after which the account locks.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, maxFailedLogins int) portssvc.AccountSvcFacade {
	if maxFailedLogins <= 0 {
		maxFailedLogins = 3
	}
	return &accountService{accountRepo: accountRepo, maxFailedLogins: maxFailedLogins}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// Register creates a new ACTIVE customer account with hashed credentials.
func (s *accountService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil || opening.IsNegative() {
			return nil, fmt.Errorf("%w: opening balance must be a non-negative amount", apperrors.ErrValidation)
		}
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	pinHash, err := utils.HashPassword(req.PIN)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	number, err := utils.GenerateAccountNumber(accountNumberLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account number: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountNumber: number,
		Name:          req.Name,
		Balance:       opening,
		Status:        domain.AccountActive,
		Role:          domain.RoleCustomer,
		PasswordHash:  passwordHash,
		PINHash:       pinHash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     number,
			LastUpdatedAt: now,
			LastUpdatedBy: number,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account registered", slog.String("account", number))
	return &account, nil
}

// EnsureAdminAccount creates the administrative account on startup if the
// row does not exist yet. Idempotent: an existing row is left untouched, and
// a concurrent create by another instance is treated as success.
func (s *accountService) EnsureAdminAccount(ctx context.Context, accountNumber, name, password, pin string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if password == "" || pin == "" {
		return fmt.Errorf("%w: admin bootstrap requires a password and a PIN", apperrors.ErrValidation)
	}

	existing, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			return fmt.Errorf("%w: account %s exists but is not an admin", apperrors.ErrValidation, accountNumber)
		}
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	pinHash, err := utils.HashPassword(pin)
	if err != nil {
		return fmt.Errorf("failed to hash admin PIN: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountNumber: accountNumber,
		Name:          name,
		Balance:       decimal.Zero,
		Status:        domain.AccountActive,
		Role:          domain.RoleAdmin,
		PasswordHash:  passwordHash,
		PINHash:       pinHash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     accountNumber,
			LastUpdatedAt: now,
			LastUpdatedBy: accountNumber,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		// Another instance won the race; the row exists either way.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to save admin account: %w", err)
	}

	logger.Info("Administrative account provisioned", slog.String("account", accountNumber))
	return nil
}

// Authenticate verifies the account password. Failed attempts increment a
// counter; crossing the threshold locks the account. A successful login
// resets the counter.
func (s *accountService) Authenticate(ctx context.Context, accountNumber, password string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Same error as a bad password, to not leak account existence.
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	if account.Status != domain.AccountActive {
		return nil, fmt.Errorf("%w: account is %s", apperrors.ErrAccountUnavailable, account.Status)
	}

	now := time.Now().UTC()
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		attempts := account.FailedAttempts + 1
		if err := s.accountRepo.UpdateFailedAttempts(ctx, accountNumber, attempts, now); err != nil {
			logger.Error("Failed to record failed login attempt", slog.String("error", err.Error()))
		}
		if attempts >= s.maxFailedLogins {
			if err := s.accountRepo.UpdateAccountStatus(ctx, accountNumber, domain.AccountLocked, accountNumber, now); err != nil {
				logger.Error("Failed to lock account after repeated failures", slog.String("error", err.Error()))
			} else {
				logger.Warn("Account locked after repeated failed logins", slog.String("account", accountNumber), slog.Int("attempts", attempts))
			}
		}
		return nil, apperrors.ErrUnauthorized
	}

	if account.FailedAttempts > 0 {
		if err := s.accountRepo.UpdateFailedAttempts(ctx, accountNumber, 0, now); err != nil {
			logger.Error("Failed to reset failed login counter", slog.String("error", err.Error()))
		}
	}
	return account, nil
}

// VerifyPIN checks the transaction PIN. A mismatch is Forbidden, not
// CredentialRequired: the credential was supplied, it just doesn't match.
func (s *accountService) VerifyPIN(ctx context.Context, accountNumber, pin string) error {
	account, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(pin, account.PINHash) {
		return fmt.Errorf("%w: PIN mismatch", apperrors.ErrForbidden)
	}
	return nil
}

// GetBalance returns a display snapshot of the account, read outside any
// transaction lock.
func (s *accountService) GetBalance(ctx context.Context, accountNumber string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SetStatus applies an administrative lifecycle transition. Unlocking also
// resets the failed-attempt counter.
func (s *accountService) SetStatus(ctx context.Context, accountNumber string, status domain.AccountStatus, actor domain.Actor) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.IsAdmin() {
		return fmt.Errorf("%w: account status changes require administrative privilege", apperrors.ErrForbidden)
	}
	switch status {
	case domain.AccountActive, domain.AccountLocked, domain.AccountArchived:
	default:
		return fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, status)
	}

	now := time.Now().UTC()
	if err := s.accountRepo.UpdateAccountStatus(ctx, accountNumber, status, actor.AccountNumber, now); err != nil {
		return err
	}
	if status == domain.AccountActive {
		if err := s.accountRepo.UpdateFailedAttempts(ctx, accountNumber, 0, now); err != nil {
			logger.Error("Failed to reset failed login counter on unlock", slog.String("error", err.Error()))
		}
	}

	logger.Info("Account status changed", slog.String("account", accountNumber), slog.String("status", string(status)))
	return nil
}
