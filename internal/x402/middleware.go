package x402

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"seapay/pkg/response"
)

// Context keys set by the gate for downstream handlers.
const (
	PayerKey    = "x402_payer"
	SettleTxKey = "x402_settle_tx"
)

// PriceFunc computes the price of the requested resource in smallest
// asset units. Returning an error aborts the request before any
// challenge is issued.
type PriceFunc func(c *gin.Context) (int64, error)

// FixedPrice prices every request at the same amount.
func FixedPrice(amount int64) PriceFunc {
	return func(*gin.Context) (int64, error) {
		return amount, nil
	}
}

// GateConfig configures the payment gate for one route.
type GateConfig struct {
	Facilitator Facilitator
	Price       PriceFunc
	PayTo       string
	Asset       string // token contract address
	Network     string
	// MaxTimeoutSeconds bounds how long a challenge stays payable.
	MaxTimeoutSeconds int
	// Settle executes the payment after verification so the handler can
	// record the settlement transaction.
	Settle bool
	Log    zerolog.Logger
}

// Gate returns middleware that admits a request only with a verified
// payment proof. Without one it answers 402 with the payment
// requirements; the handler behind it never runs on an unpaid request.
func Gate(cfg GateConfig) gin.HandlerFunc {
	log := cfg.Log.With().Str("component", "payment_gate").Logger()
	maxTimeout := cfg.MaxTimeoutSeconds
	if maxTimeout <= 0 {
		maxTimeout = 300
	}

	return func(c *gin.Context) {
		amount, err := cfg.Price(c)
		if err != nil {
			// Unpriceable requests fail outright instead of challenging
			// the client for an unknown amount.
			response.Error(c, err)
			c.Abort()
			return
		}

		reqs := PaymentRequirements{
			Scheme:            "exact",
			Network:           cfg.Network,
			Amount:            strconv.FormatInt(amount, 10),
			Asset:             cfg.Asset,
			PayTo:             cfg.PayTo,
			MaxTimeoutSeconds: maxTimeout,
		}

		// Every unpaid outcome re-issues the same challenge body so the
		// caller can always construct a fresh proof and retry.
		challenge := func(reason string) {
			c.AbortWithStatusJSON(402, PaymentRequired{
				X402Version: Version,
				Error:       reason,
				Accepts:     []PaymentRequirements{reqs},
			})
		}

		header := c.GetHeader(PaymentHeader)
		if header == "" {
			challenge("")
			return
		}

		payload, err := DecodePaymentHeader(header)
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("malformed payment header")
			challenge("malformed payment header")
			return
		}

		verdict, err := cfg.Facilitator.Verify(c.Request.Context(), *payload, reqs)
		if err != nil {
			// Unreachable is an outage on our side of the contract, not a
			// bad proof. Loud log, same challenge to the client.
			log.Error().Err(err).Str("path", c.FullPath()).Msg("facilitator unreachable")
			challenge("payment verification unavailable")
			return
		}
		if !verdict.IsValid {
			log.Warn().
				Str("path", c.FullPath()).
				Str("reason", verdict.InvalidReason).
				Str("payer", verdict.Payer).
				Msg("payment proof rejected")
			challenge(verdict.InvalidReason)
			return
		}

		c.Set(PayerKey, verdict.Payer)

		if cfg.Settle {
			settlement, err := cfg.Facilitator.Settle(c.Request.Context(), *payload, reqs)
			if err != nil {
				log.Error().Err(err).Str("path", c.FullPath()).Msg("settlement failed")
				challenge("payment settlement unavailable")
				return
			}
			if !settlement.Success {
				log.Warn().
					Str("path", c.FullPath()).
					Str("reason", settlement.ErrorReason).
					Msg("settlement declined")
				challenge(settlement.ErrorReason)
				return
			}
			c.Set(SettleTxKey, settlement.Transaction)
			if encoded, err := EncodeSettleHeader(*settlement); err == nil {
				c.Header(SettleHeader, encoded)
			}
		}

		log.Info().
			Str("path", c.FullPath()).
			Str("payer", verdict.Payer).
			Int64("amount", amount).
			Msg("payment verified")
		c.Next()
	}
}
