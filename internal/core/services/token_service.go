package services

import (
	"fmt"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/platform/config"
	"github.com/SscSPs/account_ledger_app/internal/utils"
)

// tokenService issues bearer tokens for authenticated accounts.
type tokenService struct {
	cfg *config.Config
}

// NewTokenService creates a TokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg}
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// IssueToken creates a signed JWT carrying the account number and role.
func (s *tokenService) IssueToken(account *domain.Account) (string, int64, error) {
	token, err := utils.GenerateJWT(account.AccountNumber, string(account.Role), s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, int64(s.cfg.JWTExpiryDuration.Seconds()), nil
}
