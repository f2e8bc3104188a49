package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

// ReservationServiceImpl books stays whose payment was already verified
// by the gate in front of it.
type ReservationServiceImpl struct {
	repo        ports.ReservationRepository
	calc        ports.PriceCalculator
	assetSymbol string
	log         zerolog.Logger
}

// NewReservationService creates a new ReservationServiceImpl.
func NewReservationService(
	repo ports.ReservationRepository,
	calc ports.PriceCalculator,
	assetSymbol string,
	log zerolog.Logger,
) *ReservationServiceImpl {
	return &ReservationServiceImpl{
		repo:        repo,
		calc:        calc,
		assetSymbol: assetSymbol,
		log:         log.With().Str("component", "reservation_service").Logger(),
	}
}

var _ ports.ReservationService = (*ReservationServiceImpl)(nil)

// Quote prices a stay without booking it.
func (s *ReservationServiceImpl) Quote(ctx context.Context, resourceID string, checkIn, checkOut time.Time) (*domain.Quote, error) {
	return s.calc.Quote(resourceID, checkIn, checkOut)
}

// Reserve books a paid stay. A retried payment for the same guest and
// stay returns the existing booking instead of creating a duplicate.
func (s *ReservationServiceImpl) Reserve(ctx context.Context, req ports.ReserveRequest) (*domain.Reservation, error) {
	if req.GuestName == "" {
		return nil, apperror.Validation("guest_name is required")
	}

	quote, err := s.calc.Quote(req.ResourceID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByStay(ctx, req.ResourceID, req.GuestName, req.CheckIn)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if existing != nil {
		s.log.Info().
			Str("reservation_id", existing.ID.String()).
			Msg("duplicate booking attempt, returning existing reservation")
		return existing, nil
	}

	reservation := &domain.Reservation{
		ID:          uuid.New(),
		ResourceID:  req.ResourceID,
		GuestName:   req.GuestName,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		Nights:      quote.Nights,
		Amount:      quote.Amount,
		AssetSymbol: s.assetSymbol,
		Payer:       req.Payer,
		SettleTx:    req.SettleTx,
		Status:      domain.ReservationStatusConfirmed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.log.Info().
		Str("reservation_id", reservation.ID.String()).
		Str("resource_id", reservation.ResourceID).
		Int("nights", reservation.Nights).
		Int64("amount", reservation.Amount).
		Msg("reservation confirmed")
	return reservation, nil
}

// List pages through bookings, newest first.
func (s *ReservationServiceImpl) List(ctx context.Context, page, pageSize int) ([]domain.Reservation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(ctx, page, pageSize)
}
