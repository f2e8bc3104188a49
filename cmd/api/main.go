package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seapay/config"
	httpHandler "seapay/internal/adapter/http/handler"
	pgStorage "seapay/internal/adapter/storage/postgres"
	redisStorage "seapay/internal/adapter/storage/redis"
	"seapay/internal/approval"
	"seapay/internal/core/ports"
	"seapay/internal/pricing"
	"seapay/internal/service"
	"seapay/internal/wallet"
	"seapay/internal/x402"
	"seapay/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("network", cfg.Wallet.Network).
		Msg("Starting seapay")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	transferRepo := pgStorage.NewTransferRepo(pool)
	reservationRepo := pgStorage.NewReservationRepo(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Wallet provider chain: custodial first, local key fallback.
	var factories []ports.ProviderFactory
	if cfg.Wallet.CustodialBaseURL != "" {
		factories = append(factories, wallet.NewCustodialFactory(wallet.CustodialConfig{
			BaseURL:       cfg.Wallet.CustodialBaseURL,
			APIKey:        cfg.Wallet.CustodialAPIKey,
			OwnerID:       cfg.Wallet.OwnerID,
			Network:       cfg.Wallet.Network,
			AssetContract: cfg.Wallet.AssetContract,
			AssetSymbol:   cfg.Wallet.AssetSymbol,
			AssetDecimals: cfg.Wallet.AssetDecimals,
		}, &http.Client{Timeout: 15 * time.Second}, log))
	}
	if cfg.Wallet.PrivateKey != "" {
		factories = append(factories, wallet.NewLocalKeyFactory(wallet.LocalKeyConfig{
			PrivateKeyHex: cfg.Wallet.PrivateKey,
			RPCURL:        cfg.Wallet.RPCURL,
			ChainID:       cfg.Wallet.ChainID,
			AssetContract: cfg.Wallet.AssetContract,
			AssetSymbol:   cfg.Wallet.AssetSymbol,
			AssetDecimals: cfg.Wallet.AssetDecimals,
		}, log))
	}
	if len(factories) == 0 {
		log.Fatal().Msg("No wallet provider configured: set custodial_base_url or private_key")
	}
	walletManager := wallet.NewManager(factories, cfg.Wallet.Network, cfg.Wallet.InitTimeout, log)

	// Approval gate: one spend at a time, resolved by the operator.
	approvalGate := approval.NewGate(cfg.Wallet.ApprovalTimeout, log)

	// Pricing calculator and payment facilitator.
	calculator := pricing.NewCalculator(cfg.Pricing.Rates, cfg.Pricing.DefaultRate, cfg.Wallet.AssetDecimals)
	facilitator := x402.NewFacilitatorClient(cfg.Facilitator.BaseURL, cfg.Facilitator.Timeout, log)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(cfg.Auth, hashSvc, tokenSvc, log)
	walletSvc := service.NewWalletService(walletManager, approvalGate, transferRepo, cfg.Wallet.AssetSymbol, cfg.Wallet.Reserve, log)
	reservationSvc := service.NewReservationService(reservationRepo, calculator, cfg.Wallet.AssetSymbol, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		ReservationSvc: reservationSvc,
		ApprovalGate:   approvalGate,
		Calculator:     calculator,
		TokenSvc:       tokenSvc,
		Facilitator:    facilitator,
		IdemCache:      idempotencyCache,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},

		PayTo:             cfg.Facilitator.PayTo,
		Asset:             cfg.Wallet.AssetContract,
		Network:           cfg.Wallet.Network,
		MaxTimeoutSeconds: 300,

		Rates:       cfg.Pricing.Rates,
		AssetSymbol: cfg.Wallet.AssetSymbol,

		Logger: log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
