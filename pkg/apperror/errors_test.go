package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("WAL_001", "Wallet is unavailable", http.StatusServiceUnavailable)
	assert.Equal(t, "[WAL_001] Wallet is unavailable", e.Error())

	inner := errors.New("dial tcp: connection refused")
	wrapped := Wrap("WAL_001", "Wallet is unavailable", http.StatusServiceUnavailable, inner)
	assert.Contains(t, wrapped.Error(), "WAL_001")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := ErrWalletUnavailable(inner)
	assert.ErrorIs(t, wrapped, inner)

	var appErr *AppError
	assert.ErrorAs(t, error(wrapped), &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}

func TestErrorCatalog(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"wallet unavailable", ErrWalletUnavailable(nil), "WAL_001", http.StatusServiceUnavailable},
		{"identity conflict", ErrIdentityConflict(nil), "WAL_002", http.StatusConflict},
		{"insufficient funds", ErrInsufficientFunds("50", "10", "USDC"), "WAL_003", http.StatusPaymentRequired},
		{"transfer failed", ErrTransferFailed("0xabc", nil), "WAL_004", http.StatusBadGateway},
		{"approval pending", ErrApprovalAlreadyPending(), "APR_001", http.StatusConflict},
		{"approval timeout", ErrApprovalTimedOut(), "APR_002", http.StatusRequestTimeout},
		{"no matching request", ErrNoMatchingRequest(), "APR_003", http.StatusNotFound},
		{"approval rejected", ErrApprovalRejected(), "APR_004", http.StatusForbidden},
		{"invalid date range", ErrInvalidDateRange(), "PRC_001", http.StatusBadRequest},
		{"unknown resource", ErrUnknownResource("attic"), "PRC_002", http.StatusBadRequest},
		{"proof rejected", ErrProofRejected("expired"), "PAY_001", http.StatusPaymentRequired},
		{"facilitator unreachable", ErrFacilitatorUnreachable(nil), "PAY_002", http.StatusPaymentRequired},
		{"invalid credentials", ErrInvalidCredentials(), "AUTH_001", http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken(), "AUTH_002", http.StatusUnauthorized},
		{"rate limited", ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
		{"database error", ErrDatabaseError(nil), "SYS_001", http.StatusInternalServerError},
		{"internal error", InternalError(nil), "SYS_002", http.StatusInternalServerError},
		{"validation", Validation("bad input"), "REQ_001", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrTransferFailed_MessageMentionsHashOnlyAfterBroadcast(t *testing.T) {
	broadcast := ErrTransferFailed("0xdeadbeef", errors.New("reverted"))
	assert.Contains(t, broadcast.Message, "0xdeadbeef")
	assert.Contains(t, broadcast.Message, "after broadcast")

	preBroadcast := ErrTransferFailed("", errors.New("nonce fetch failed"))
	assert.Equal(t, "Transfer failed", preBroadcast.Message)
	assert.NotContains(t, preBroadcast.Message, "tx")
}

func TestErrInsufficientFunds_MessageCarriesAmounts(t *testing.T) {
	e := ErrInsufficientFunds("50000000", "12000000", "USDC")
	assert.Contains(t, e.Message, "50000000")
	assert.Contains(t, e.Message, "12000000")
	assert.Contains(t, e.Message, "USDC")
}
