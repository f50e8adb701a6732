package handlers

import (
	"time"

	"upipay/internal/config"
	"upipay/internal/models"
	"upipay/internal/services/auth"
	"upipay/internal/utils"
	"upipay/internal/utils/response"
	"upipay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService auth.Service
	logger      *zap.Logger
}

func NewAuthHandler(authService auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// Login authenticates with phone number and PIN and returns JWT tokens.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input models.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return bodyError(c)
	}
	if err := validation.Struct(&input); err != nil {
		return respondError(c, h.logger, err)
	}

	party, tokens, err := h.authService.Login(c.UserContext(), input.Phone, input.Pin)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.setAuthCookies(c, tokens)
	return response.Success(c, "Login successful", fiber.Map{
		"user":         party,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// RefreshToken handles token refresh requests
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	// First try to get token from cookies
	refreshToken := c.Cookies("refresh_token")

	// If not in cookies, try request body
	if refreshToken == "" {
		var input struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.BodyParser(&input); err != nil {
			return response.Unauthorized(c)
		}
		refreshToken = input.RefreshToken
	}
	if refreshToken == "" {
		return response.Unauthorized(c)
	}

	tokens, err := h.authService.RefreshTokens(c.UserContext(), refreshToken)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	h.setAuthCookies(c, tokens)
	return response.Success(c, "Token refreshed", tokens)
}

// Logout revokes every token issued to the caller.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := utils.GetPartyClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	if err := h.authService.Logout(c.UserContext(), claims.Address); err != nil {
		return respondError(c, h.logger, err)
	}

	h.setAuthCookies(c, &auth.Tokens{})
	return response.Success(c, "Successfully logged out", nil)
}

// setAuthCookies mirrors the tokens into HTTP-only cookies. Empty tokens
// clear them.
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, tokens *auth.Tokens) {
	expires := time.Now().Add(7 * 24 * time.Hour)
	if tokens.AccessToken == "" {
		expires = time.Now().Add(-time.Hour)
	}
	for name, value := range map[string]string{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    value,
			Expires:  expires,
			HTTPOnly: true,
			Secure:   config.IsProduction(),
			SameSite: "Strict",
			Path:     "/",
		})
	}
}
