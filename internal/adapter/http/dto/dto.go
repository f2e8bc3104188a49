package dto

import (
	"time"

	"seapay/internal/core/domain"
)

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// SpendRequest is the request body for an outbound payment.
type SpendRequest struct {
	Recipient string  `json:"recipient" binding:"required,eth_addr"`
	Amount    int64   `json:"amount" binding:"required,gt=0"` // smallest asset units
	Summary   string  `json:"summary" binding:"max=200"`
	Reference *string `json:"reference,omitempty" binding:"omitempty,max=100"`
}

// ResolveApprovalRequest is the operator's answer to a pending spend.
type ResolveApprovalRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=APPROVED REJECTED"`
	Note    string `json:"note" binding:"max=200"`
}

// ReserveRequest is the request body for booking a stay.
type ReserveRequest struct {
	ResourceID string `json:"resource_id" binding:"required,safe_id,max=64"`
	GuestName  string `json:"guest_name" binding:"required,min=1,max=100"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
}

// WalletInfoResponse describes the managed wallet.
type WalletInfoResponse struct {
	Address  string `json:"address"`
	Provider string `json:"provider"`
	Network  string `json:"network"`
	State    string `json:"state"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Symbol    string `json:"symbol"`
	Raw       string `json:"raw"` // smallest asset units
	Formatted string `json:"formatted"`
	Decimals  int    `json:"decimals"`
}

// TransferResponse is the wire shape of a journaled transfer.
type TransferResponse struct {
	ID          string  `json:"id"`
	TxHash      string  `json:"tx_hash"`
	Recipient   string  `json:"recipient"`
	Amount      int64   `json:"amount"`
	AssetSymbol string  `json:"asset_symbol"`
	Provider    string  `json:"provider"`
	Status      string  `json:"status"`
	Gasless     bool    `json:"gasless"`
	Reference   *string `json:"reference,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ConfirmedAt *string `json:"confirmed_at,omitempty"`
}

// TransferListResponse wraps a paginated transfer list.
type TransferListResponse struct {
	Items      []TransferResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// PendingApprovalResponse describes the spend awaiting a decision.
type PendingApprovalResponse struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Amount      int64  `json:"amount"`
	AssetSymbol string `json:"asset_symbol"`
	Recipient   string `json:"recipient"`
	RequestedAt string `json:"requested_at"`
	ExpiresAt   string `json:"expires_at"`
}

// QuoteResponse is a priced stay.
type QuoteResponse struct {
	ResourceID  string `json:"resource_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Nights      int    `json:"nights"`
	NightlyRate int64  `json:"nightly_rate"`
	Amount      int64  `json:"amount"`
	AmountWire  string `json:"amount_wire"` // decimal string as it appears in the challenge
}

// ReservationResponse is the wire shape of a booking.
type ReservationResponse struct {
	ID          string `json:"id"`
	ResourceID  string `json:"resource_id"`
	GuestName   string `json:"guest_name"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Nights      int    `json:"nights"`
	Amount      int64  `json:"amount"`
	AssetSymbol string `json:"asset_symbol"`
	Payer       string `json:"payer,omitempty"`
	SettleTx    string `json:"settle_tx,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// ReservationListResponse wraps a paginated booking list.
type ReservationListResponse struct {
	Items      []ReservationResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// RoomResponse describes a bookable resource and its nightly rate.
type RoomResponse struct {
	ResourceID  string `json:"resource_id"`
	NightlyRate int64  `json:"nightly_rate"` // whole asset units
	AssetSymbol string `json:"asset_symbol"`
}

// FromTransfer maps a domain transfer to its wire shape.
func FromTransfer(t domain.TransferRecord) TransferResponse {
	resp := TransferResponse{
		ID:          t.ID.String(),
		TxHash:      t.TxHash,
		Recipient:   t.Recipient,
		Amount:      t.Amount,
		AssetSymbol: t.AssetSymbol,
		Provider:    string(t.Provider),
		Status:      string(t.Status),
		Gasless:     t.Gasless,
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.ConfirmedAt != nil {
		s := t.ConfirmedAt.UTC().Format(time.RFC3339)
		resp.ConfirmedAt = &s
	}
	return resp
}

// FromReservation maps a domain booking to its wire shape.
func FromReservation(r domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          r.ID.String(),
		ResourceID:  r.ResourceID,
		GuestName:   r.GuestName,
		CheckIn:     r.CheckIn.UTC().Format(DateLayout),
		CheckOut:    r.CheckOut.UTC().Format(DateLayout),
		Nights:      r.Nights,
		Amount:      r.Amount,
		AssetSymbol: r.AssetSymbol,
		Payer:       r.Payer,
		SettleTx:    r.SettleTx,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// FromApproval maps a pending approval to its wire shape.
func FromApproval(a domain.ApprovalRequest) PendingApprovalResponse {
	return PendingApprovalResponse{
		ID:          a.ID.String(),
		Summary:     a.Summary,
		Amount:      a.Amount,
		AssetSymbol: a.AssetSymbol,
		Recipient:   a.Recipient,
		RequestedAt: a.RequestedAt.UTC().Format(time.RFC3339),
		ExpiresAt:   a.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// FromQuote maps a quote to its wire shape.
func FromQuote(q domain.Quote, amountWire string) QuoteResponse {
	return QuoteResponse{
		ResourceID:  q.ResourceID,
		CheckIn:     q.CheckIn.UTC().Format(DateLayout),
		CheckOut:    q.CheckOut.UTC().Format(DateLayout),
		Nights:      q.Nights,
		NightlyRate: q.NightlyRate,
		Amount:      q.Amount,
		AmountWire:  amountWire,
	}
}

// ParseDate parses a YYYY-MM-DD wire date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
