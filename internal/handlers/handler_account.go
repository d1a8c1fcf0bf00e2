package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/account_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/SscSPs/account_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:accountNumber/balance", h.getBalance)
		accounts.POST("/:accountNumber/archive", h.archiveAccount)
		accounts.POST("/:accountNumber/restore", h.restoreAccount)
	}
}

// getBalance godoc
// @Summary Get the balance of an account
// @Description Returns a read-only balance snapshot without taking any lock
// @Tags accounts
// @Produce  json
// @Param   accountNumber path string true "Account number"
// @Success 200 {object} dto.BalanceResponse
// @Failure 403 {object} map[string]string "Not the account holder"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{accountNumber}/balance [get]
func (h *accountHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountNumber := c.Param("accountNumber")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "Unauthorized"})
		return
	}

	// Balance is private: only the holder and admins may read it.
	if !actor.IsAdmin() && !actor.Owns(accountNumber) {
		logger.Warn("Balance read refused", slog.String("target_account", accountNumber))
		c.JSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "error": "forbidden"})
		return
	}

	account, err := h.accountService.GetBalance(c.Request.Context(), accountNumber)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
		Status:        string(account.Status),
	})
}

// archiveAccount godoc
// @Summary Archive an account
// @Description Marks an account as archived so it cannot participate in transactions (admin only)
// @Tags accounts
// @Produce  json
// @Param   accountNumber path string true "Account number"
// @Success 204 "Archived"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{accountNumber}/archive [post]
func (h *accountHandler) archiveAccount(c *gin.Context) {
	h.setStatus(c, domain.AccountArchived)
}

// restoreAccount godoc
// @Summary Restore an account
// @Description Returns a locked or archived account to active service (admin only)
// @Tags accounts
// @Produce  json
// @Param   accountNumber path string true "Account number"
// @Success 204 "Restored"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /accounts/{accountNumber}/restore [post]
func (h *accountHandler) restoreAccount(c *gin.Context) {
	h.setStatus(c, domain.AccountActive)
}

func (h *accountHandler) setStatus(c *gin.Context, status domain.AccountStatus) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountNumber := c.Param("accountNumber")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "Unauthorized"})
		return
	}

	if err := h.accountService.SetStatus(c.Request.Context(), accountNumber, status, actor); err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Account status changed", slog.String("target_account", accountNumber), slog.String("status", string(status)))
	c.Status(http.StatusNoContent)
}
