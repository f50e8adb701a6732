// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"strings"

	"upipay/internal/services/auth"
	"upipay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token and stores the party claims
// in the request context.
type AuthMiddleware struct {
	authService auth.Service
	logger      *zap.Logger
}

func NewAuthMiddleware(authService auth.Service, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		authService: authService,
		logger:      logger.Named("auth_middleware"),
	}
}

// Handler accepts the token from the Authorization header or, failing
// that, the access_token cookie.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	token := c.Cookies("access_token")
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.logger.Debug("invalid authorization format", zap.String("path", c.Path()))
			return response.Unauthorized(c)
		}
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		m.logger.Debug("missing token", zap.String("path", c.Path()))
		return response.Unauthorized(c)
	}

	claims, err := m.authService.Verify(c.UserContext(), token)
	if err != nil {
		m.logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return response.Unauthorized(c)
	}

	c.Locals("claims", claims)
	return c.Next()
}
