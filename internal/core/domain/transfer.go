package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus represents the lifecycle state of an outbound payment.
type TransferStatus string

const (
	TransferStatusSubmitted TransferStatus = "SUBMITTED"
	TransferStatusConfirmed TransferStatus = "CONFIRMED"
	TransferStatusFailed    TransferStatus = "FAILED"
)

// TransferRecord is the journal entry for one outbound token payment.
// Amount is in the asset's smallest unit.
type TransferRecord struct {
	ID          uuid.UUID      `json:"id"`
	TxHash      string         `json:"tx_hash"`
	Recipient   string         `json:"recipient"`
	Amount      int64          `json:"amount"`
	AssetSymbol string         `json:"asset_symbol"`
	Provider    ProviderKind   `json:"provider"`
	Status      TransferStatus `json:"status"`
	Gasless     bool           `json:"gasless"`
	Reference   *string        `json:"reference,omitempty"` // e.g. reservation id
	CreatedAt   time.Time      `json:"created_at"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
}

// IsTerminal returns true if the transfer reached a final state.
func (t *TransferRecord) IsTerminal() bool {
	return t.Status == TransferStatusConfirmed || t.Status == TransferStatusFailed
}
