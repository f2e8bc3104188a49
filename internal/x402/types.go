// Package x402 implements the HTTP 402 payment-challenge protocol:
// wire types, the facilitator client and the gin gate middleware.
package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Version is the protocol version this service speaks.
const Version = 1

// PaymentHeader is the request header carrying the payment proof.
const PaymentHeader = "X-PAYMENT"

// SettleHeader is the response header carrying settlement info.
const SettleHeader = "X-PAYMENT-RESPONSE"

// PaymentRequirements describes one accepted way to pay for a resource.
type PaymentRequirements struct {
	// Scheme is the payment scheme identifier, e.g. "exact".
	Scheme string `json:"scheme"`
	// Network is the chain identifier, e.g. "base-sepolia".
	Network string `json:"network"`
	// Amount is the required amount in the asset's smallest unit.
	Amount string `json:"amount"`
	// Asset is the token contract address.
	Asset string `json:"asset"`
	// PayTo is the address payment must be directed to.
	PayTo string `json:"payTo"`
	// MaxTimeoutSeconds is how long the payer has to submit payment.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`
	// Extra carries scheme-specific hints such as token name and version.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// PaymentRequired is the 402 response body challenging the client.
type PaymentRequired struct {
	X402Version int                   `json:"x402Version"`
	Error       string                `json:"error,omitempty"`
	Accepts     []PaymentRequirements `json:"accepts"`
}

// PaymentPayload is the decoded X-PAYMENT header.
type PaymentPayload struct {
	X402Version int                 `json:"x402Version"`
	Accepted    PaymentRequirements `json:"accepted"`
	// Payload is scheme-specific proof material, passed through to the
	// facilitator without interpretation.
	Payload json.RawMessage `json:"payload"`
}

// VerifyResponse is the facilitator's verdict on a payment proof.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse is the facilitator's settlement result.
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer,omitempty"`
}

// DecodePaymentHeader parses the base64-encoded JSON X-PAYMENT value.
func DecodePaymentHeader(header string) (*PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("decoding payment header: %w", err)
	}
	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parsing payment header: %w", err)
	}
	if payload.X402Version != Version {
		return nil, fmt.Errorf("unsupported x402 version %d", payload.X402Version)
	}
	return &payload, nil
}

// EncodePaymentHeader renders a payload as an X-PAYMENT header value.
// Used by clients and tests.
func EncodePaymentHeader(payload PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding payment header: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeSettleHeader renders a settlement result as a response header value.
func EncodeSettleHeader(resp SettleResponse) (string, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encoding settle header: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
