package services

import (
	portsrepo "github.com/SscSPs/account_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/platform/config"
)

// NewServiceContainer creates the service container with properly wired
// dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, notifier portssvc.ReceiptNotifier) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo, cfg.MaxFailedLogins)
	container.Transaction = NewTransactionService(repos.LedgerRepo, repos.AccountRepo, container.Account, notifier, cfg.LockWaitTimeout)
	container.Token = NewTokenService(cfg)

	return container
}
