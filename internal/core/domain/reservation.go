package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the lifecycle state of a booking.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusFailed    ReservationStatus = "FAILED"
)

// Reservation records a paid booking of a priced resource.
// Amount is in the settlement asset's smallest unit.
type Reservation struct {
	ID          uuid.UUID         `json:"id"`
	ResourceID  string            `json:"resource_id"`
	GuestName   string            `json:"guest_name"`
	CheckIn     time.Time         `json:"check_in"`
	CheckOut    time.Time         `json:"check_out"`
	Nights      int               `json:"nights"`
	Amount      int64             `json:"amount"`
	AssetSymbol string            `json:"asset_symbol"`
	Payer       string            `json:"payer,omitempty"` // from payment verification
	SettleTx    string            `json:"settle_tx,omitempty"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Quote is a priced stay before any payment happens.
type Quote struct {
	ResourceID  string    `json:"resource_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Nights      int       `json:"nights"`
	NightlyRate int64     `json:"nightly_rate"` // whole asset units
	Amount      int64     `json:"amount"`       // smallest asset units
}
