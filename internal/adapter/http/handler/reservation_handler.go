package handler

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	"seapay/internal/adapter/http/dto"
	"seapay/internal/core/ports"
	"seapay/internal/x402"
	"seapay/pkg/apperror"
	"seapay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
)

// idempotencyTTL bounds how long a settled payment can replay its
// original booking response.
const idempotencyTTL = 24 * time.Hour

// ReservationHandler books stays paid through the payment gate.
type ReservationHandler struct {
	reservationSvc ports.ReservationService
	idemCache      ports.IdempotencyCache // nil = replay check disabled
	rates          map[string]int64
	assetSymbol    string
	log            zerolog.Logger
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(
	reservationSvc ports.ReservationService,
	idemCache ports.IdempotencyCache,
	rates map[string]int64,
	assetSymbol string,
	log zerolog.Logger,
) *ReservationHandler {
	return &ReservationHandler{
		reservationSvc: reservationSvc,
		idemCache:      idemCache,
		rates:          rates,
		assetSymbol:    assetSymbol,
		log:            log.With().Str("component", "reservation_handler").Logger(),
	}
}

// StayPrice returns the payment gate price function for POST /reserve.
// It binds the body with ShouldBindBodyWith so the handler behind the
// gate can bind it again.
func StayPrice(calc ports.PriceCalculator) x402.PriceFunc {
	return func(c *gin.Context) (int64, error) {
		var req dto.ReserveRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			return 0, apperror.Validation(err.Error())
		}

		checkIn, err := dto.ParseDate(req.CheckIn)
		if err != nil {
			return 0, apperror.Validation("check_in must be YYYY-MM-DD")
		}
		checkOut, err := dto.ParseDate(req.CheckOut)
		if err != nil {
			return 0, apperror.Validation("check_out must be YYYY-MM-DD")
		}

		quote, err := calc.Quote(req.ResourceID, checkIn, checkOut)
		if err != nil {
			return 0, err
		}
		return quote.Amount, nil
	}
}

// ListRooms handles GET /api/v1/rooms.
func (h *ReservationHandler) ListRooms(c *gin.Context) {
	rooms := make([]dto.RoomResponse, 0, len(h.rates))
	for id, rate := range h.rates {
		rooms = append(rooms, dto.RoomResponse{
			ResourceID:  id,
			NightlyRate: rate,
			AssetSymbol: h.assetSymbol,
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ResourceID < rooms[j].ResourceID })

	response.OK(c, gin.H{"rooms": rooms})
}

// Quote handles GET /api/v1/rooms/:id/quote?check_in=...&check_out=...
func (h *ReservationHandler) Quote(c *gin.Context) {
	checkIn, err := dto.ParseDate(c.Query("check_in"))
	if err != nil {
		response.Error(c, apperror.Validation("check_in must be YYYY-MM-DD"))
		return
	}
	checkOut, err := dto.ParseDate(c.Query("check_out"))
	if err != nil {
		response.Error(c, apperror.Validation("check_out must be YYYY-MM-DD"))
		return
	}

	quote, err := h.reservationSvc.Quote(c.Request.Context(), c.Param("id"), checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromQuote(*quote, strconv.FormatInt(quote.Amount, 10)))
}

// Reserve handles POST /api/v1/reserve. The payment gate in front of
// this handler has already verified (and settled) the payment; the
// payer address and settle transaction arrive through the context.
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	checkIn, err := dto.ParseDate(req.CheckIn)
	if err != nil {
		response.Error(c, apperror.Validation("check_in must be YYYY-MM-DD"))
		return
	}
	checkOut, err := dto.ParseDate(req.CheckOut)
	if err != nil {
		response.Error(c, apperror.Validation("check_out must be YYYY-MM-DD"))
		return
	}

	settleTx := c.GetString(x402.SettleTxKey)

	// A replayed settle transaction returns the original booking
	// instead of creating a second one.
	if h.idemCache != nil && settleTx != "" {
		if cached, err := h.idemCache.Get(c.Request.Context(), settleTx); err != nil {
			h.log.Warn().Err(err).Msg("idempotency cache read failed")
		} else if cached != nil {
			response.OK(c, json.RawMessage(cached))
			return
		}
	}

	reservation, err := h.reservationSvc.Reserve(c.Request.Context(), ports.ReserveRequest{
		ResourceID: req.ResourceID,
		GuestName:  req.GuestName,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Payer:      c.GetString(x402.PayerKey),
		SettleTx:   settleTx,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.FromReservation(*reservation)
	if h.idemCache != nil && settleTx != "" {
		if body, err := json.Marshal(resp); err == nil {
			if err := h.idemCache.Set(c.Request.Context(), settleTx, body, idempotencyTTL); err != nil {
				h.log.Warn().Err(err).Msg("idempotency cache write failed")
			}
		}
	}

	response.Created(c, resp)
}

// ListReservations handles GET /api/v1/reservations.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	reservations, total, err := h.reservationSvc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		items = append(items, dto.FromReservation(reservations[i]))
	}

	response.OK(c, dto.ReservationListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}
