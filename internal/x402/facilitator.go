package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"seapay/pkg/apperror"
)

// Facilitator verifies and settles payment proofs against an external
// verification service.
type Facilitator interface {
	Verify(ctx context.Context, payload PaymentPayload, reqs PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload PaymentPayload, reqs PaymentRequirements) (*SettleResponse, error)
}

// FacilitatorClient is the HTTP implementation of Facilitator.
type FacilitatorClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewFacilitatorClient builds a client for the given facilitator endpoint.
func NewFacilitatorClient(baseURL string, timeout time.Duration, log zerolog.Logger) *FacilitatorClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FacilitatorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "facilitator_client").Logger(),
	}
}

var _ Facilitator = (*FacilitatorClient)(nil)

// facilitatorRequest is the body for both /verify and /settle.
type facilitatorRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// Verify asks the facilitator whether the proof is valid. A returned
// error means the facilitator could not be consulted at all; a rejected
// proof comes back as IsValid=false with no error.
func (f *FacilitatorClient) Verify(ctx context.Context, payload PaymentPayload, reqs PaymentRequirements) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := f.post(ctx, "/verify", payload, reqs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settle asks the facilitator to execute the payment on-chain.
func (f *FacilitatorClient) Settle(ctx context.Context, payload PaymentPayload, reqs PaymentRequirements) (*SettleResponse, error) {
	var out SettleResponse
	if err := f.post(ctx, "/settle", payload, reqs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *FacilitatorClient) post(ctx context.Context, path string, payload PaymentPayload, reqs PaymentRequirements, out any) error {
	body, err := json.Marshal(facilitatorRequest{
		X402Version:         Version,
		PaymentPayload:      payload,
		PaymentRequirements: reqs,
	})
	if err != nil {
		return fmt.Errorf("facilitator: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("facilitator: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return apperror.ErrFacilitatorUnreachable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperror.ErrFacilitatorUnreachable(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.ErrFacilitatorUnreachable(
			fmt.Errorf("facilitator: %s returned status %d: %s", path, resp.StatusCode, bytes.TrimSpace(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.ErrFacilitatorUnreachable(fmt.Errorf("facilitator: decoding response: %w", err))
	}
	return nil
}
