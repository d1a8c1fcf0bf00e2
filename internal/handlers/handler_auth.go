package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/SscSPs/account_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// authHandler handles registration and login.
type authHandler struct {
	accountService portssvc.AccountSvcFacade
	tokenService   portssvc.TokenSvcFacade
}

func newAuthHandler(as portssvc.AccountSvcFacade, ts portssvc.TokenSvcFacade) *authHandler {
	return &authHandler{
		accountService: as,
		tokenService:   ts,
	}
}

// registerAuthRoutes registers the public authentication routes.
func registerAuthRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	h := newAuthHandler(services.Account, services.Token)

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}
}

// register godoc
// @Summary Register a new account
// @Description Creates a new customer account with a password and transaction PIN
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   account body dto.RegisterRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Router /auth/register [post]
func (h *authHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Register", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION", "error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Account registered", slog.String("account_number", account.AccountNumber))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// login godoc
// @Summary Authenticate an account holder
// @Description Verifies the password and returns a bearer token. Repeated failures lock the account.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   credentials body dto.LoginRequest true "Account number and password"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 422 {object} map[string]string "Account locked or archived"
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Login", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION", "error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.Authenticate(c.Request.Context(), req.AccountNumber, req.Password)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	token, expiresIn, err := h.tokenService.IssueToken(account)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Login succeeded", slog.String("account_number", account.AccountNumber))
	c.JSON(http.StatusOK, dto.LoginResponse{
		AccountNumber: account.AccountNumber,
		Token:         token,
		ExpiresIn:     expiresIn,
	})
}
