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

// ---- Wallet (WAL) ----

func ErrWalletUnavailable(err error) *AppError {
	return Wrap("WAL_001", "Wallet is unavailable", http.StatusServiceUnavailable, err)
}

func ErrIdentityConflict(err error) *AppError {
	return Wrap("WAL_002", "A signing identity already exists for this owner", http.StatusConflict, err)
}

// ErrInsufficientFunds carries the current balance for diagnostics.
func ErrInsufficientFunds(required, available string, symbol string) *AppError {
	return New("WAL_003",
		fmt.Sprintf("Insufficient %s balance: required %s, available %s", symbol, required, available),
		http.StatusPaymentRequired)
}

// ErrTransferFailed includes the transaction hash for manual lookup
// when the failure happened after broadcast. An empty hash means the
// transfer never reached the chain.
func ErrTransferFailed(txHash string, err error) *AppError {
	msg := "Transfer failed"
	if txHash != "" {
		msg = fmt.Sprintf("Transfer failed after broadcast (tx %s)", txHash)
	}
	return Wrap("WAL_004", msg, http.StatusBadGateway, err)
}

// ---- Approval flow (APR) ----

func ErrApprovalAlreadyPending() *AppError {
	return New("APR_001", "Another approval request is already pending", http.StatusConflict)
}

func ErrApprovalTimedOut() *AppError {
	return New("APR_002", "Approval request timed out", http.StatusRequestTimeout)
}

func ErrNoMatchingRequest() *AppError {
	return New("APR_003", "No pending approval request matches this id", http.StatusNotFound)
}

func ErrApprovalRejected() *AppError {
	return New("APR_004", "The operator rejected this request", http.StatusForbidden)
}

// ---- Pricing (PRC) ----

func ErrInvalidDateRange() *AppError {
	return New("PRC_001", "Check-out date must be at least one day after check-in", http.StatusBadRequest)
}

func ErrUnknownResource(resource string) *AppError {
	return New("PRC_002", fmt.Sprintf("No rate configured for %q", resource), http.StatusBadRequest)
}

// ---- Payment challenge (PAY) ----

func ErrProofRejected(reason string) *AppError {
	return New("PAY_001", fmt.Sprintf("Payment proof rejected: %s", reason), http.StatusPaymentRequired)
}

func ErrFacilitatorUnreachable(err error) *AppError {
	return Wrap("PAY_002", "Payment verification service unreachable", http.StatusPaymentRequired, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a generic SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}
