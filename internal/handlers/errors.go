package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/account_ledger_app/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// httpStatusFor maps a service error chain to an HTTP status.
func httpStatusFor(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidType),
		errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrMissingAccount),
		errors.Is(err, apperrors.ErrCredentialRequired),
		errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrBusyAccount),
		errors.Is(err, apperrors.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrAccountUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes the uniform error envelope: a stable machine code
// plus a human readable message. Internal failures are logged with the cause
// but never leak it to the client.
func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status := httpStatusFor(err)
	code := apperrors.Code(err)

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(status, gin.H{"code": code, "error": "Internal server error"})
		return
	}

	logger.Warn("Request rejected", slog.String("code", code), slog.String("error", err.Error()))
	c.JSON(status, gin.H{"code": code, "error": err.Error()})
}
