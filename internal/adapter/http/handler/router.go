package handler

import (
	"seapay/internal/adapter/http/middleware"
	redisStore "seapay/internal/adapter/storage/redis"
	"seapay/internal/core/ports"
	"seapay/internal/x402"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	ReservationSvc ports.ReservationService
	ApprovalGate   ports.ApprovalGate
	Calculator     ports.PriceCalculator
	TokenSvc       ports.TokenService
	Facilitator    x402.Facilitator
	IdemCache      ports.IdempotencyCache     // nil = replay check disabled
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker

	// Payment gate parameters for the paid reserve route.
	PayTo             string
	Asset             string
	Network           string
	MaxTimeoutSeconds int

	// Room catalog for the public listing.
	Rates       map[string]int64
	AssetSymbol string

	Logger zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("login"), authHandler.Login)
	}

	reservationHandler := NewReservationHandler(
		deps.ReservationSvc, deps.IdemCache, deps.Rates, deps.AssetSymbol, deps.Logger)

	rooms := v1.Group("/rooms")
	{
		rooms.GET("", rl("rooms"), reservationHandler.ListRooms)
		rooms.GET("/:id/quote", rl("rooms"), reservationHandler.Quote)
	}

	// --- Paid route (402 payment gate, no session auth) ---
	paymentGate := x402.Gate(x402.GateConfig{
		Facilitator:       deps.Facilitator,
		Price:             StayPrice(deps.Calculator),
		PayTo:             deps.PayTo,
		Asset:             deps.Asset,
		Network:           deps.Network,
		MaxTimeoutSeconds: deps.MaxTimeoutSeconds,
		Settle:            true,
		Log:               deps.Logger,
	})
	v1.POST("/reserve", rl("reserve"), paymentGate, reservationHandler.Reserve)

	// --- JWT-authenticated routes (operator console) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	approvalHandler := NewApprovalHandler(deps.ApprovalGate)

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", rl("wallet"), walletHandler.Info)
		wallet.GET("/balance", rl("wallet"), walletHandler.Balance)
		wallet.POST("/spend", rl("spend"), walletHandler.Spend)
		wallet.GET("/transfers", rl("wallet"), walletHandler.ListTransfers)
	}

	approvals := v1.Group("/approvals", jwtAuth)
	{
		approvals.GET("/pending", rl("approvals"), approvalHandler.Pending)
		approvals.POST("/:id/resolve", rl("approvals"), approvalHandler.Resolve)
	}

	reservations := v1.Group("/reservations", jwtAuth)
	{
		reservations.GET("", rl("wallet"), reservationHandler.ListReservations)
	}

	return r
}
