// Package pricing computes stay quotes from configured nightly rates.
package pricing

import (
	"time"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

type calculator struct {
	rates       map[string]int64
	defaultRate int64
	decimals    int
}

// NewCalculator builds a pure quote calculator. rates maps resource id to
// nightly rate in whole asset units; defaultRate (if > 0) applies to
// unknown resources; decimals converts to smallest units.
func NewCalculator(rates map[string]int64, defaultRate int64, decimals int) ports.PriceCalculator {
	return &calculator{
		rates:       rates,
		defaultRate: defaultRate,
		decimals:    decimals,
	}
}

// Quote prices a stay. Nights are whole UTC calendar days between
// check-in and check-out; same-day or inverted ranges are invalid.
func (c *calculator) Quote(resourceID string, checkIn, checkOut time.Time) (*domain.Quote, error) {
	nights := calendarNights(checkIn, checkOut)
	if nights < 1 {
		return nil, apperror.ErrInvalidDateRange()
	}

	rate, ok := c.rates[resourceID]
	if !ok {
		if c.defaultRate <= 0 {
			return nil, apperror.ErrUnknownResource(resourceID)
		}
		rate = c.defaultRate
	}

	return &domain.Quote{
		ResourceID:  resourceID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		NightlyRate: rate,
		Amount:      int64(nights) * rate * pow10(c.decimals),
	}, nil
}

// calendarNights counts whole UTC calendar days between the two dates.
// Time-of-day is discarded so a late check-in does not shorten the stay.
func calendarNights(checkIn, checkOut time.Time) int {
	in := midnightUTC(checkIn)
	out := midnightUTC(checkOut)
	return int(out.Sub(in).Hours() / 24)
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
