package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/account_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/account_ledger_app/internal/dto"
	"github.com/SscSPs/account_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests against the ledger.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{
		transactionService: ts,
	}
}

// registerTransactionRoutes registers routes related to transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(transactionService)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.createTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:id", h.getTransaction)
		transactions.POST("/:id/amend", h.amendTransaction)
	}
}

// createTransaction godoc
// @Summary Create a transaction
// @Description Executes a deposit, withdrawal or transfer in a single atomic unit of work. Deferred transactions are recorded as Pending without touching balances.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid type, amount or accounts"
// @Failure 403 {object} map[string]string "Wrong PIN or not the account holder"
// @Failure 409 {object} map[string]string "Account row busy, retry later"
// @Failure 422 {object} map[string]string "Insufficient funds or account unavailable"
// @Security BearerAuth
// @Router /transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION", "error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "Unauthorized"})
		return
	}

	logger.Info("Received request to create transaction",
		slog.String("type", req.Type),
		slog.String("account_number", req.AccountNumber),
		slog.Bool("deferred", req.Deferred),
	)

	txn, err := h.transactionService.CreateTransaction(c.Request.Context(), req, actor)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Transaction created", slog.Int64("transaction_id", txn.ID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a transaction with its audit trail
// @Description Retrieves one ledger row plus its full audit history. Non-admins only see transactions they participate in.
// @Tags transactions
// @Produce  json
// @Param   id path int true "Transaction ID"
// @Success 200 {object} dto.GetTransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION", "error": "Invalid transaction id"})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "Unauthorized"})
		return
	}

	txn, audit, err := h.transactionService.GetTransaction(c.Request.Context(), id, actor)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.GetTransactionResponse{
		Transaction: dto.ToTransactionResponse(txn),
		Audit:       dto.ToAuditEntryResponses(audit),
	})
}

// listTransactions godoc
// @Summary List transactions
// @Description Returns a filtered, cursor-paginated ledger listing. Non-admins are always scoped to their own account.
// @Tags transactions
// @Produce  json
// @Param   account query string false "Account number filter"
// @Param   type query string false "Transaction type filter"
// @Param   status query string false "Transaction status filter"
// @Param   from query string false "Created-at lower bound (RFC3339)"
// @Param   to query string false "Created-at upper bound (RFC3339)"
// @Param   q query string false "Note substring search"
// @Param   limit query int false "Page size (default 20)"
// @Param   nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid filter or cursor"
// @Security BearerAuth
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION", "error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "Unauthorized"})
		return
	}

	resp, err := h.transactionService.ListTransactions(c.Request.Context(), params, actor)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// amendTransaction godoc
// @Summary Amend a transaction
// @Description Applies an administrative action to an existing transaction: complete a pending one, void with balance rollback, or update the note.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path int true "Transaction ID"
// @Param   amendment body dto.AmendTransactionRequest true "Amendment action"
// @Success 200 {object} dto.TransactionResponse
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transition not allowed by the state machine"
// @Security BearerAuth
// @Router /transactions/{id}/amend [post]
func (h *transactionHandler) amendTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION", "error": "Invalid transaction id"})
		return
	}

	var req dto.AmendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AmendTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION", "error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "Unauthorized"})
		return
	}

	logger.Info("Received request to amend transaction",
		slog.Int64("transaction_id", id),
		slog.String("action", string(req.Action)),
	)

	txn, err := h.transactionService.AmendTransaction(c.Request.Context(), id, req, actor)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Transaction amended", slog.Int64("transaction_id", txn.ID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}
