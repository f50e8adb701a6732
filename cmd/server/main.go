// Package main is the entry point for the API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"upipay/internal/config"
	"upipay/internal/events"
	"upipay/internal/handlers"
	"upipay/internal/lock"
	"upipay/internal/logging"
	"upipay/internal/middleware"
	"upipay/internal/repositories"
	"upipay/internal/repositories/cache"
	"upipay/internal/routes"
	"upipay/internal/services/auth"
	"upipay/internal/services/funding"
	"upipay/internal/services/ledger"
	"upipay/internal/services/party"
	"upipay/internal/services/transfer"
	"upipay/internal/services/wallet"
	"upipay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := repositories.OpenDB(cfg)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()
	logger.Info("connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	store := repositories.NewStore(db)

	health := map[string]handlers.Pinger{"database": store}
	reports := map[string]handlers.Reporter{}

	var (
		redisClient *redis.Client
		walletCache repositories.WalletCache = repositories.NoopWalletCache{}
	)
	startCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err = cache.Connect(startCtx, cache.ConfigFrom(cfg))
	cancel()
	if err != nil {
		if cfg.LockBackend == "redis" {
			logger.Fatal("redis is required for the redis lock backend", zap.Error(err))
		}
		logger.Warn("redis unavailable, running without balance cache", zap.Error(err))
	} else {
		cacheService := cache.NewCacheService(redisClient, cfg.BalanceCacheTTL)
		defer func() { _ = cacheService.Close() }()
		walletCache = cacheService
		health["redis"] = handlers.PingFunc(cacheService.HealthCheck)
		reports["redis"] = cacheService
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.LockBackend == "redis" {
		locker = lock.NewRedisLocker(redisClient, lock.DefaultOptions(), logger)
	}
	logger.Info("wallet locks configured", zap.String("backend", cfg.LockBackend))

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("publishing transaction events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	var source funding.Source = funding.DirectSource{}
	if cfg.StripeSecretKey != "" {
		stripeSource := funding.NewStripeSource(cfg.StripeSecretKey, cfg.StripeCurrency, nil, logger)
		breaker := funding.NewBreakerSource("stripe", stripeSource, funding.DefaultBreakerConfig(), logger)
		reports["funding"] = breaker
		source = breaker
	}

	maxTopUp, err := decimal.NewFromString(cfg.MaxTopUpAmount)
	if err != nil {
		logger.Fatal("invalid MAX_TOPUP_AMOUNT", zap.String("value", cfg.MaxTopUpAmount), zap.Error(err))
	}

	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}

	ledgerService := ledger.NewService(store, logger)
	deps := routes.Deps{
		Auth:    auth.NewService(store.Parties(), issuer, logger),
		Parties: party.NewService(store, cfg.BcryptCost, logger),
		Wallets: wallet.NewService(store, locker, walletCache, source, wallet.Config{
			MaxTopUp: maxTopUp,
			Timeout:  cfg.TransferTimeout,
		}, logger),
		Transfer: transfer.NewService(store, locker, ledgerService, walletCache, publisher, transfer.Config{
			Timeout: cfg.TransferTimeout,
		}, logger),
		Health:          health,
		Reports:         reports,
		Logger:          logger,
		CredentialLimit: 5,
	}

	app := fiber.New(fiber.Config{
		AppName:      "upipay",
		ErrorHandler: handlers.ErrorHandler(logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger(logger))

	routes.SetupRoutes(app, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
