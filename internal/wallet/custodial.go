package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

// CustodialConfig holds what the hosted-wallet client needs.
type CustodialConfig struct {
	BaseURL       string
	APIKey        string
	OwnerID       string
	Network       string
	AssetContract string
	AssetSymbol   string
	AssetDecimals int
}

// httpDoer is satisfied by *http.Client. Narrowed for stubbing in tests.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CustodialProvider talks to a hosted wallet API. The custodian holds the
// key and sponsors gas, so transfers come back gasless and settled.
type CustodialProvider struct {
	cfg     CustodialConfig
	client  httpDoer
	address string
	log     zerolog.Logger

	confirmPoll time.Duration
}

var _ ports.WalletProvider = (*CustodialProvider)(nil)

type createWalletRequest struct {
	OwnerID string `json:"owner_id"`
	Network string `json:"network"`
}

type createWalletResponse struct {
	Address string `json:"address"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type balanceResponse struct {
	Amount   string `json:"amount"` // smallest units, decimal string
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
}

type transferAPIRequest struct {
	To       string `json:"to"`
	Amount   string `json:"amount"` // smallest units, decimal string
	Contract string `json:"contract"`
	Network  string `json:"network"`
}

type transferAPIResponse struct {
	TxHash string `json:"tx_hash"`
	Status string `json:"status"` // pending | completed | failed
}

func (p *CustodialProvider) Kind() domain.ProviderKind { return domain.ProviderKindCustodial }

func (p *CustodialProvider) Address() string { return p.address }

func (p *CustodialProvider) Balance(ctx context.Context) (domain.AssetBalance, error) {
	path := fmt.Sprintf("/v1/wallets/%s/balances?contract=%s", p.address, p.cfg.AssetContract)
	var out balanceResponse
	if err := p.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return domain.AssetBalance{}, err
	}

	raw, ok := new(big.Int).SetString(out.Amount, 10)
	if !ok {
		return domain.AssetBalance{}, fmt.Errorf("custodial balance: malformed amount %q", out.Amount)
	}
	decimals := out.Decimals
	if decimals == 0 {
		decimals = p.cfg.AssetDecimals
	}

	return domain.AssetBalance{
		Symbol:   p.cfg.AssetSymbol,
		Raw:      raw,
		Decimals: decimals,
	}, nil
}

func (p *CustodialProvider) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	body := transferAPIRequest{
		To:       req.Recipient,
		Amount:   req.Amount.String(),
		Contract: p.cfg.AssetContract,
		Network:  p.cfg.Network,
	}

	var out transferAPIResponse
	path := fmt.Sprintf("/v1/wallets/%s/transfers", p.address)
	if err := p.call(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}

	p.log.Info().
		Str("tx_hash", out.TxHash).
		Str("recipient", req.Recipient).
		Str("amount", req.Amount.String()).
		Msg("gasless transfer submitted")

	return &ports.TransferResult{
		TxHash:    out.TxHash,
		Gasless:   true,
		Confirmed: out.Status == "completed",
	}, nil
}

// confirmPollInterval paces transfer status lookups at the custodian.
const confirmPollInterval = 3 * time.Second

// WaitForConfirmation polls the custodian's transfer status until it
// settles or ctx expires.
func (p *CustodialProvider) WaitForConfirmation(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(p.confirmPoll)
	defer ticker.Stop()

	path := fmt.Sprintf("/v1/wallets/%s/transfers/%s", p.address, txHash)
	for {
		var out transferAPIResponse
		err := p.call(ctx, http.MethodGet, path, nil, &out)
		switch {
		case err != nil:
			p.log.Warn().Err(err).Str("tx_hash", txHash).Msg("transfer status lookup failed, retrying")
		case out.Status == "completed":
			p.log.Info().Str("tx_hash", txHash).Msg("transfer confirmed")
			return nil
		case out.Status == "failed":
			return apperror.ErrTransferFailed(txHash, fmt.Errorf("custodian reported the transfer failed"))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// call performs one JSON round-trip against the custodial API.
func (p *CustodialProvider) call(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("custodial api: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("custodial api: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return apperror.ErrWalletUnavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("custodial api: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("custodial api: decoding response: %w", err)
		}
	}
	return nil
}

// decodeAPIError maps custodial error bodies onto the local taxonomy.
// A 409 or an "already exists" message means the owner already has a
// wallet we cannot access, which triggers provider fallback upstream.
func decodeAPIError(status int, raw []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)

	msg := strings.ToLower(apiErr.Message)
	if status == http.StatusConflict || strings.Contains(msg, "already exists") {
		return apperror.ErrIdentityConflict(fmt.Errorf("custodial api: %s (%s)", apiErr.Message, apiErr.Code))
	}
	return apperror.ErrWalletUnavailable(fmt.Errorf("custodial api: status %d: %s", status, strings.TrimSpace(string(raw))))
}

// CustodialFactory provisions (or re-attaches to) the hosted wallet.
type CustodialFactory struct {
	cfg    CustodialConfig
	client httpDoer
	log    zerolog.Logger
}

func NewCustodialFactory(cfg CustodialConfig, client *http.Client, log zerolog.Logger) *CustodialFactory {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &CustodialFactory{cfg: cfg, client: client, log: log}
}

var _ ports.ProviderFactory = (*CustodialFactory)(nil)

func (f *CustodialFactory) Kind() domain.ProviderKind { return domain.ProviderKindCustodial }

// New registers a wallet for the configured owner. The custodian rejects
// a second registration for the same owner with an identity conflict.
func (f *CustodialFactory) New(ctx context.Context) (ports.WalletProvider, error) {
	if f.cfg.BaseURL == "" || f.cfg.APIKey == "" {
		return nil, apperror.ErrWalletUnavailable(fmt.Errorf("custodial api not configured"))
	}

	p := &CustodialProvider{
		cfg:         f.cfg,
		client:      f.client,
		log:         f.log.With().Str("component", "custodial_provider").Logger(),
		confirmPoll: confirmPollInterval,
	}

	var out createWalletResponse
	in := createWalletRequest{OwnerID: f.cfg.OwnerID, Network: f.cfg.Network}
	if err := p.call(ctx, http.MethodPost, "/v1/wallets", in, &out); err != nil {
		return nil, err
	}
	if out.Address == "" {
		return nil, apperror.ErrWalletUnavailable(fmt.Errorf("custodial api: empty wallet address"))
	}

	p.address = out.Address
	return p, nil
}
