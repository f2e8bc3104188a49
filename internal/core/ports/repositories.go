package ports

import (
	"context"
	"time"

	"seapay/internal/core/domain"

	"github.com/google/uuid"
)

// TransferRepository defines persistence for the outbound payment journal.
type TransferRepository interface {
	Create(ctx context.Context, transfer *domain.TransferRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransferStatus, confirmedAt *time.Time) error
	List(ctx context.Context, params TransferListParams) ([]domain.TransferRecord, int64, error)
}

// TransferListParams holds filter + pagination for listing transfers.
type TransferListParams struct {
	Status   *domain.TransferStatus
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// ReservationRepository defines persistence for bookings.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	// GetByStay looks up an existing booking for the same guest and stay,
	// used to keep retried payments idempotent.
	GetByStay(ctx context.Context, resourceID, guestName string, checkIn time.Time) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus, settleTx string) error
	List(ctx context.Context, page, pageSize int) ([]domain.Reservation, int64, error)
}
