package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transaction engine. Handlers translate these into
// HTTP statuses; services wrap them with fmt.Errorf("...: %w", err) so the
// chain stays inspectable with errors.Is.
var (
	// ErrNotFound indicates that a requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation indicates that input data failed validation checks.
	ErrValidation = errors.New("validation error")

	// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
	ErrDuplicate = errors.New("resource already exists")

	// ErrForbidden indicates the actor is not allowed to perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an unexpected infrastructure failure.
	ErrInternal = errors.New("internal error")

	// ErrInvalidType rejects a transaction whose type is not deposit, withdrawal or transfer.
	ErrInvalidType = errors.New("invalid transaction type")

	// ErrInvalidAmount rejects a transaction whose amount is not a positive finite number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingAccount rejects a request lacking a required source or target account.
	ErrMissingAccount = errors.New("missing account")

	// ErrCredentialRequired rejects a debit operation submitted without a PIN.
	ErrCredentialRequired = errors.New("credential required")

	// ErrAccountNotFound indicates a referenced account does not exist. It
	// matches ErrNotFound so generic handling still applies.
	ErrAccountNotFound = fmt.Errorf("account not found: %w", ErrNotFound)

	// ErrAccountUnavailable indicates a referenced account is locked or archived.
	ErrAccountUnavailable = errors.New("account unavailable")

	// ErrInsufficientFunds rejects a debit that would drive the balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBusyAccount indicates a row lock could not be acquired immediately.
	// Transient; the caller may retry with backoff.
	ErrBusyAccount = errors.New("account busy")

	// ErrInvalidStateTransition rejects an amendment the state machine disallows.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// Code returns the stable machine-readable code for a sentinel error, or
// "INTERNAL" when the chain matches none of them.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidType):
		return "INVALID_TYPE"
	case errors.Is(err, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, ErrMissingAccount):
		return "MISSING_ACCOUNT"
	case errors.Is(err, ErrCredentialRequired):
		return "CREDENTIAL_REQUIRED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ErrAccountUnavailable):
		return "ACCOUNT_UNAVAILABLE"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrBusyAccount):
		return "BUSY_ACCOUNT"
	case errors.Is(err, ErrInvalidStateTransition):
		return "INVALID_STATE_TRANSITION"
	case errors.Is(err, ErrDuplicate):
		return "DUPLICATE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrValidation):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}

// AppError wraps infrastructure failures with an HTTP-ish status code and a
// human readable message.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with the given status, message and cause.
func NewAppError(status int, message string, err error) *AppError {
	return &AppError{Status: status, Message: message, Err: err}
}
