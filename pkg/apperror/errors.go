package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Input validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be a positive decimal", http.StatusBadRequest)
}

func ErrInvalidCurrency(code string) *AppError {
	return New("VAL_002", fmt.Sprintf("Invalid currency code %q", code), http.StatusBadRequest)
}

func ErrInvalidDate(value string) *AppError {
	return New("VAL_003", fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", value), http.StatusBadRequest)
}

// Validation returns a VAL_000 error for malformed request bodies.
func Validation(message string) *AppError {
	return New("VAL_000", message, http.StatusBadRequest)
}

// ---- Wallet business rules (WAL) ----

func ErrInsufficientFunds() *AppError {
	return New("WAL_001", "Insufficient PLN balance", http.StatusPaymentRequired)
}

func ErrInsufficientCurrencyFunds(currency string) *AppError {
	return New("WAL_002", fmt.Sprintf("Insufficient %s balance", currency), http.StatusPaymentRequired)
}

// ---- Rates (RATE) ----

func ErrRateUnavailable(currency string) *AppError {
	return New("RATE_001", fmt.Sprintf("No exchange rate recorded for %s", currency), http.StatusNotFound)
}

func ErrNoPublication(date string) *AppError {
	return New("RATE_002", fmt.Sprintf("No rate publication for %s (weekend or holiday)", date), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

// ErrInvalidCredentials is deliberately uninformative: it never reveals
// whether the email or the password was wrong.
func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailTaken() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Generic ----

func ErrNotFound(entity string) *AppError {
	return New("NOT_FOUND", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrRateSourceUnavailable signals the upstream rate source could not be
// reached. Safe to retry: nothing was committed.
func ErrRateSourceUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Rate source unavailable", http.StatusServiceUnavailable, err)
}

// ErrStorageTimeout signals the storage engine aborted the operation. The
// whole unit rolled back, so the caller may retry it.
func ErrStorageTimeout(err error) *AppError {
	return Wrap("SYS_003", "Storage timeout, operation aborted", http.StatusServiceUnavailable, err)
}
