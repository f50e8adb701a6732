// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"upipay/internal/handlers"
	"upipay/internal/middleware"
	"upipay/internal/services/auth"
	"upipay/internal/services/party"
	"upipay/internal/services/transfer"
	"upipay/internal/services/wallet"
	"upipay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

// Deps carries the services the HTTP layer exposes.
type Deps struct {
	Auth     auth.Service
	Parties  party.Service
	Wallets  wallet.Service
	Transfer transfer.Service
	Logger   *zap.Logger

	// Health lists the dependencies pinged by /health.
	Health map[string]handlers.Pinger

	// Reports adds runtime counters to /health.
	Reports map[string]handlers.Reporter

	// CredentialLimit caps register and login attempts per IP per minute.
	// Zero disables the limiter.
	CredentialLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authHandler := handlers.NewAuthHandler(deps.Auth, logger)
	partyHandler := handlers.NewPartyHandler(deps.Parties, logger)
	walletHandler := handlers.NewWalletHandler(deps.Wallets, logger)
	transactionHandler := handlers.NewTransactionHandler(deps.Transfer, logger)
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth, logger)

	app.Get("/health", handlers.HealthCheck(deps.Health, deps.Reports))

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", credentialLimiter(deps.CredentialLimit), partyHandler.Register)
	users.Post("/login", credentialLimiter(deps.CredentialLimit), authHandler.Login)
	users.Post("/refresh", authHandler.RefreshToken)
	users.Post("/logout", authMiddleware.Handler, authHandler.Logout)
	users.Get("/profile/:upiId", authMiddleware.Handler, partyHandler.GetProfile)

	wallets := api.Group("/wallet", authMiddleware.Handler)
	wallets.Post("/add", walletHandler.TopUp)
	wallets.Get("/:upiId", walletHandler.GetWallet)

	transactions := api.Group("/transaction", authMiddleware.Handler)
	transactions.Post("/send", transactionHandler.Send)
	transactions.Get("/history/:upiId", transactionHandler.History)
}

func credentialLimiter(max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests. Please try again later.", nil)
		},
	})
}
