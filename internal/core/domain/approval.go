package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalOutcome is the resolution of an approval request.
type ApprovalOutcome string

const (
	ApprovalOutcomeApproved ApprovalOutcome = "APPROVED"
	ApprovalOutcomeRejected ApprovalOutcome = "REJECTED"
	ApprovalOutcomeTimedOut ApprovalOutcome = "TIMED_OUT"
)

// ApprovalRequest describes a spend awaiting an operator decision.
// Amount is in the asset's smallest unit.
type ApprovalRequest struct {
	ID          uuid.UUID `json:"id"`
	Summary     string    `json:"summary"`
	Amount      int64     `json:"amount"`
	AssetSymbol string    `json:"asset_symbol"`
	Recipient   string    `json:"recipient"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ApprovalDecision is an operator's answer to a pending request.
type ApprovalDecision struct {
	RequestID uuid.UUID       `json:"request_id"`
	Outcome   ApprovalOutcome `json:"outcome"`
	Note      string          `json:"note,omitempty"`
	DecidedAt time.Time       `json:"decided_at"`
}
