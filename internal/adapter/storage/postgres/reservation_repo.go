package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seapay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReservationRepo implements ports.ReservationRepository.
type ReservationRepo struct {
	pool Pool
}

// NewReservationRepo creates a new ReservationRepo.
func NewReservationRepo(pool Pool) *ReservationRepo {
	return &ReservationRepo{pool: pool}
}

const reservationColumns = `id, resource_id, guest_name, check_in, check_out, nights, amount, asset_symbol, payer, settle_tx, status, created_at`

// Create inserts a booking.
func (r *ReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		res.ID, res.ResourceID, res.GuestName, res.CheckIn, res.CheckOut,
		res.Nights, res.Amount, res.AssetSymbol, res.Payer, res.SettleTx,
		res.Status, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetByID fetches a booking by UUID. Returns (nil, nil) when absent.
func (r *ReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.scanReservation(r.pool.QueryRow(ctx, query, id))
}

// GetByStay fetches an existing booking for the same guest and stay.
// Failed bookings don't block a retry.
func (r *ReservationRepo) GetByStay(ctx context.Context, resourceID, guestName string, checkIn time.Time) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE resource_id = $1 AND guest_name = $2 AND check_in = $3 AND status != 'FAILED'`
	return r.scanReservation(r.pool.QueryRow(ctx, query, resourceID, guestName, checkIn))
}

// UpdateStatus moves a booking through its lifecycle.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus, settleTx string) error {
	query := `UPDATE reservations SET status = $1, settle_tx = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, settleTx, id)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation not found: %s", id)
	}
	return nil
}

// List pages through bookings, newest first.
func (r *ReservationRepo) List(ctx context.Context, page, pageSize int) ([]domain.Reservation, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID, &res.ResourceID, &res.GuestName, &res.CheckIn, &res.CheckOut,
			&res.Nights, &res.Amount, &res.AssetSymbol, &res.Payer, &res.SettleTx,
			&res.Status, &res.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reservations: %w", err)
	}

	return reservations, total, nil
}

func (r *ReservationRepo) scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID, &res.ResourceID, &res.GuestName, &res.CheckIn, &res.CheckOut,
		&res.Nights, &res.Amount, &res.AssetSymbol, &res.Payer, &res.SettleTx,
		&res.Status, &res.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	return &res, nil
}
