package utils

import (
	"errors"

	"upipay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPartyClaims extracts the party claims from the Fiber context.
// It returns an error if the claims are missing or of an invalid type.
func GetPartyClaims(c *fiber.Ctx) (*models.PartyClaims, error) {
	v := c.Locals("claims")
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.PartyClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
