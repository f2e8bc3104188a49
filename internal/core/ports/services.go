package ports

import (
	"context"
	"time"

	"seapay/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations for operator sessions.
type TokenService interface {
	Generate(username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Username string
}

// IdempotencyCache is the Redis-layer replay check for paid requests.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ApprovalGate holds at most one spend awaiting an operator decision.
type ApprovalGate interface {
	// Request parks req and blocks until an operator resolves it, the
	// gate's timeout elapses, or ctx is done. Fails fast with
	// APR_001 if another request already occupies the slot.
	Request(ctx context.Context, req domain.ApprovalRequest) (*domain.ApprovalDecision, error)
	// Resolve answers the pending request. Resolving an id that is no
	// longer pending returns APR_003 and changes nothing.
	Resolve(id uuid.UUID, outcome domain.ApprovalOutcome, note string) error
	// Pending returns the request currently occupying the slot, if any.
	Pending() (*domain.ApprovalRequest, bool)
}

// PriceCalculator turns a stay into a quote. Implementations must be
// pure: no I/O, no clock reads.
type PriceCalculator interface {
	Quote(resourceID string, checkIn, checkOut time.Time) (*domain.Quote, error)
}

// --- Service Ports (Business Logic) ---

// SpendRequest holds validated input for an operator-approved payment.
// Amount is in the asset's smallest unit.
type SpendRequest struct {
	Recipient string
	Amount    int64
	Summary   string
	Reference *string
}

// WalletService exposes the managed wallet to the HTTP layer.
type WalletService interface {
	Info(ctx context.Context) (domain.WalletInfo, error)
	Balance(ctx context.Context) (domain.AssetBalance, error)
	// Spend routes the payment through the approval gate, checks the
	// balance and journals the resulting transfer.
	Spend(ctx context.Context, req SpendRequest) (*domain.TransferRecord, error)
	ListTransfers(ctx context.Context, params TransferListParams) ([]domain.TransferRecord, int64, error)
}

// ReserveRequest holds validated input for booking a stay.
type ReserveRequest struct {
	ResourceID string
	GuestName  string
	CheckIn    time.Time
	CheckOut   time.Time
	Payer      string // payer address from the verified payment proof
	SettleTx   string // settlement transaction hash, if settled
}

// ReservationService books stays that have already been paid for.
type ReservationService interface {
	Quote(ctx context.Context, resourceID string, checkIn, checkOut time.Time) (*domain.Quote, error)
	Reserve(ctx context.Context, req ReserveRequest) (*domain.Reservation, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Reservation, int64, error)
}

// AuthService defines operator authentication.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}
