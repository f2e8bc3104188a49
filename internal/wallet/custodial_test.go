package wallet

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
	"seapay/pkg/logger"
)

func custodialTestConfig(baseURL string) CustodialConfig {
	return CustodialConfig{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		OwnerID:       "agent-7",
		Network:       "base-sepolia",
		AssetContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		AssetSymbol:   "USDC",
		AssetDecimals: 6,
	}
}

func TestCustodialFactory_New(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/wallets", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req createWalletRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "agent-7", req.OwnerID)

		json.NewEncoder(w).Encode(createWalletResponse{Address: "0x1111111111111111111111111111111111111111"})
	}))
	defer srv.Close()

	f := NewCustodialFactory(custodialTestConfig(srv.URL), srv.Client(), logger.NewWithWriter("error", io.Discard))
	p, err := f.New(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderKindCustodial, p.Kind())
	assert.Equal(t, "0x1111111111111111111111111111111111111111", p.Address())
}

func TestCustodialFactory_IdentityConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(apiError{Code: "conflict", Message: "wallet already exists for owner"})
	}))
	defer srv.Close()

	f := NewCustodialFactory(custodialTestConfig(srv.URL), srv.Client(), logger.NewWithWriter("error", io.Discard))
	_, err := f.New(context.Background())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_002", appErr.Code)
}

func TestCustodialFactory_ConflictByMessage(t *testing.T) {
	// Some deployments return 400 with a conflict message instead of 409.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiError{Message: "an identity already exists for this owner"})
	}))
	defer srv.Close()

	f := NewCustodialFactory(custodialTestConfig(srv.URL), srv.Client(), logger.NewWithWriter("error", io.Discard))
	_, err := f.New(context.Background())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_002", appErr.Code)
}

func TestCustodialFactory_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewCustodialFactory(custodialTestConfig(srv.URL), srv.Client(), logger.NewWithWriter("error", io.Discard))
	_, err := f.New(context.Background())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}

func TestCustodialProvider_Balance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/wallets/0xwallet/balances", r.URL.Path)
		json.NewEncoder(w).Encode(balanceResponse{Amount: "125000000", Decimals: 6, Symbol: "USDC"})
	}))
	defer srv.Close()

	p := &CustodialProvider{
		cfg:     custodialTestConfig(srv.URL),
		client:  srv.Client(),
		address: "0xwallet",
		log:     logger.NewWithWriter("error", io.Discard),
	}

	b, err := p.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USDC", b.Symbol)
	assert.Equal(t, big.NewInt(125_000_000), b.Raw)
	assert.Equal(t, "125", b.Formatted())
}

func TestCustodialProvider_Transfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/wallets/0xwallet/transfers", r.URL.Path)

		var req transferAPIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "50000000", req.Amount)

		json.NewEncoder(w).Encode(transferAPIResponse{TxHash: "0xhash", Status: "completed"})
	}))
	defer srv.Close()

	p := &CustodialProvider{
		cfg:     custodialTestConfig(srv.URL),
		client:  srv.Client(),
		address: "0xwallet",
		log:     logger.NewWithWriter("error", io.Discard),
	}

	res, err := p.Transfer(context.Background(), ports.TransferRequest{
		Recipient: "0x2222222222222222222222222222222222222222",
		Amount:    big.NewInt(50_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, "0xhash", res.TxHash)
	assert.True(t, res.Gasless)
	assert.True(t, res.Confirmed)
}

func TestCustodialProvider_WaitForConfirmation(t *testing.T) {
	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/wallets/0xwallet/transfers/0xhash", r.URL.Path)
		polls++
		status := "pending"
		if polls >= 3 {
			status = "completed"
		}
		json.NewEncoder(w).Encode(transferAPIResponse{TxHash: "0xhash", Status: status})
	}))
	defer srv.Close()

	p := &CustodialProvider{
		cfg:         custodialTestConfig(srv.URL),
		client:      srv.Client(),
		address:     "0xwallet",
		log:         logger.NewWithWriter("error", io.Discard),
		confirmPoll: time.Millisecond,
	}

	require.NoError(t, p.WaitForConfirmation(context.Background(), "0xhash"))
	assert.Equal(t, 3, polls, "polls until the custodian reports completion")
}

func TestCustodialProvider_WaitForConfirmation_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transferAPIResponse{TxHash: "0xhash", Status: "failed"})
	}))
	defer srv.Close()

	p := &CustodialProvider{
		cfg:         custodialTestConfig(srv.URL),
		client:      srv.Client(),
		address:     "0xwallet",
		log:         logger.NewWithWriter("error", io.Discard),
		confirmPoll: time.Millisecond,
	}

	err := p.WaitForConfirmation(context.Background(), "0xhash")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_004", appErr.Code)
	assert.Contains(t, appErr.Message, "0xhash")
}
