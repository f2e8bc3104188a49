package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seapay/config"
	httpHandler "seapay/internal/adapter/http/handler"
	redisStorage "seapay/internal/adapter/storage/redis"
	"seapay/internal/approval"
	"seapay/internal/core/ports"
	"seapay/internal/pricing"
	"seapay/internal/service"
	"seapay/internal/wallet"
	"seapay/internal/x402"
	"seapay/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack against in-memory storage:
// miniredis for the Redis stores, map-backed postgres repos, a stub
// wallet provider and a fake facilitator. It exercises the real HTTP
// layer, middleware, handlers, services and the approval gate end-to-end.

const (
	testOperator = "operator"
	testPassword = "correct-horse-battery"
)

type testApp struct {
	server      *httptest.Server
	redis       *miniredis.Miniredis
	facilitator *fakeFacilitator
	gate        *approval.Gate
	provider    *stubProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.New("debug", false)

	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	hashSvc := service.NewArgon2HashService()
	passwordHash, err := hashSvc.Hash(testPassword)
	require.NoError(t, err)
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")
	authSvc := service.NewAuthService(config.AuthConfig{
		OperatorUsername:     testOperator,
		OperatorPasswordHash: passwordHash,
	}, hashSvc, tokenSvc, log)

	provider := newStubProvider(100_000_000) // 100 USDC
	manager := wallet.NewManager([]ports.ProviderFactory{&stubFactory{provider: provider}},
		"base-sepolia", 5*time.Second, log)
	gate := approval.NewGate(2*time.Second, log)

	transferRepo := newInMemoryTransferRepo()
	reservationRepo := newInMemoryReservationRepo()

	rates := map[string]int64{"seaview-suite": 10, "garden-room": 6}
	calculator := pricing.NewCalculator(rates, 0, 6)

	walletSvc := service.NewWalletService(manager, gate, transferRepo, "USDC", 0, log)
	reservationSvc := service.NewReservationService(reservationRepo, calculator, "USDC", log)

	facilitator := &fakeFacilitator{settleTx: "0xsettle01"}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:           authSvc,
		WalletSvc:         walletSvc,
		ReservationSvc:    reservationSvc,
		ApprovalGate:      gate,
		Calculator:        calculator,
		TokenSvc:          tokenSvc,
		Facilitator:       facilitator,
		IdemCache:         idempotencyCache,
		PayTo:             "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Asset:             "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Network:           "base-sepolia",
		MaxTimeoutSeconds: 60,
		Rates:             rates,
		AssetSymbol:       "USDC",
		Logger:            log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{
		server:      server,
		redis:       mr,
		facilitator: facilitator,
		gate:        gate,
		provider:    provider,
	}
}

func (app *testApp) login(t *testing.T) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"username": testOperator,
		"password": testPassword,
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

func (app *testApp) doJSON(t *testing.T, method, path, token string, payload interface{}, extraHeaders map[string]string) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, app.server.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func paymentHeader(t *testing.T) string {
	t.Helper()
	header, err := x402.EncodePaymentHeader(x402.PaymentPayload{
		X402Version: x402.Version,
		Accepted: x402.PaymentRequirements{
			Scheme:  "exact",
			Network: "base-sepolia",
		},
		Payload: json.RawMessage(`{"signature":"0xproof"}`),
	})
	require.NoError(t, err)
	return header
}

func TestLoginAndWalletInfo(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	resp, raw := app.doJSON(t, http.MethodGet, "/api/v1/wallet", token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Contains(t, string(raw), "READY")
}

func TestWalletEndpointsRequireAuth(t *testing.T) {
	app := newTestApp(t)

	resp, raw := app.doJSON(t, http.MethodGet, "/api/v1/wallet/balance", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(raw), "AUTH_002")
}

func TestReserve_Requires402Challenge(t *testing.T) {
	app := newTestApp(t)

	resp, raw := app.doJSON(t, http.MethodPost, "/api/v1/reserve", "", map[string]string{
		"resource_id": "seaview-suite",
		"guest_name":  "Lan Pham",
		"check_in":    "2026-03-10",
		"check_out":   "2026-03-15",
	}, nil)

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	var challenge x402.PaymentRequired
	require.NoError(t, json.Unmarshal(raw, &challenge))
	require.Len(t, challenge.Accepts, 1)
	assert.Equal(t, "50000000", challenge.Accepts[0].Amount) // 5 nights x 10 USDC
	assert.Equal(t, "exact", challenge.Accepts[0].Scheme)
	assert.Equal(t, 0, app.facilitator.verifies, "no proof, no facilitator call")
}

func TestReserve_PaidFlow(t *testing.T) {
	app := newTestApp(t)

	body := map[string]string{
		"resource_id": "seaview-suite",
		"guest_name":  "Lan Pham",
		"check_in":    "2026-03-10",
		"check_out":   "2026-03-12",
	}
	headers := map[string]string{x402.PaymentHeader: paymentHeader(t)}

	resp, raw := app.doJSON(t, http.MethodPost, "/api/v1/reserve", "", body, headers)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(raw), "CONFIRMED")
	assert.Contains(t, string(raw), "0xsettle01")
	assert.Equal(t, 1, app.facilitator.verifies)
	assert.Equal(t, 1, app.facilitator.settles)
	assert.NotEmpty(t, resp.Header.Get(x402.SettleHeader))

	// Replaying the settled payment returns the original booking.
	resp2, raw2 := app.doJSON(t, http.MethodPost, "/api/v1/reserve", "", body, headers)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, string(raw2), "CONFIRMED")

	// Only one booking exists.
	token := app.login(t)
	resp3, raw3 := app.doJSON(t, http.MethodGet, "/api/v1/reservations", token, nil, nil)
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
	var listEnvelope struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw3, &listEnvelope))
	assert.Equal(t, int64(1), listEnvelope.Data.Total)
}

func TestSpend_ApprovalFlow(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	type spendResult struct {
		status int
		body   []byte
	}
	results := make(chan spendResult, 1)

	go func() {
		resp, raw := app.doJSON(t, http.MethodPost, "/api/v1/wallet/spend", token, map[string]interface{}{
			"recipient": "0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc",
			"amount":    5_000_000,
			"summary":   "restock minibar",
		}, nil)
		results <- spendResult{status: resp.StatusCode, body: raw}
	}()

	// Wait for the spend to occupy the approval slot, then approve it.
	var pendingID string
	require.Eventually(t, func() bool {
		req, ok := app.gate.Pending()
		if !ok {
			return false
		}
		pendingID = req.ID.String()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	resolvePath := fmt.Sprintf("/api/v1/approvals/%s/resolve", pendingID)
	resp, _ := app.doJSON(t, http.MethodPost, resolvePath, token, map[string]string{
		"outcome": "APPROVED",
		"note":    "ok",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := <-results
	assert.Equal(t, http.StatusOK, result.status)
	assert.Contains(t, string(result.body), "CONFIRMED")

	// The spend left the journal behind.
	listResp, listRaw := app.doJSON(t, http.MethodGet, "/api/v1/wallet/transfers", token, nil, nil)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Contains(t, string(listRaw), "restock minibar")

	// And debited the balance.
	balResp, balRaw := app.doJSON(t, http.MethodGet, "/api/v1/wallet/balance", token, nil, nil)
	assert.Equal(t, http.StatusOK, balResp.StatusCode)
	assert.Contains(t, string(balRaw), "95000000")
}

func TestSpend_RejectedByOperator(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	results := make(chan int, 1)
	go func() {
		resp, _ := app.doJSON(t, http.MethodPost, "/api/v1/wallet/spend", token, map[string]interface{}{
			"recipient": "0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc",
			"amount":    5_000_000,
		}, nil)
		results <- resp.StatusCode
	}()

	var pendingID string
	require.Eventually(t, func() bool {
		req, ok := app.gate.Pending()
		if !ok {
			return false
		}
		pendingID = req.ID.String()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	resp, _ := app.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/v1/approvals/%s/resolve", pendingID), token,
		map[string]string{"outcome": "REJECTED", "note": "unknown recipient"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusForbidden, <-results)
}

func TestRoomsArePublic(t *testing.T) {
	app := newTestApp(t)

	resp, raw := app.doJSON(t, http.MethodGet, "/api/v1/rooms", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "seaview-suite")
	assert.Contains(t, string(raw), "garden-room")

	quoteResp, quoteRaw := app.doJSON(t, http.MethodGet,
		"/api/v1/rooms/garden-room/quote?check_in=2026-03-10&check_out=2026-03-11", "", nil, nil)
	assert.Equal(t, http.StatusOK, quoteResp.StatusCode)
	assert.Contains(t, string(quoteRaw), `"amount":6000000`)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, raw := app.doJSON(t, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"status":"healthy"`)
}
