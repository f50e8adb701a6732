package handlers

import (
	"errors"

	apperrors "upipay/internal/errors"
	"upipay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a domain error code to its HTTP status.
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodePartyNotFound, apperrors.CodeWalletNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeDuplicateAddress, apperrors.CodeDuplicateContact:
		return fiber.StatusConflict
	case apperrors.CodeInvalidArgument, apperrors.CodeSameParty:
		return fiber.StatusBadRequest
	case apperrors.CodeInsufficientFunds:
		return fiber.StatusUnprocessableEntity
	case apperrors.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case apperrors.CodeForbidden:
		return fiber.StatusForbidden
	case apperrors.CodeTransferFailed:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

type insufficientFundsDetails struct {
	UpiID     string `json:"upiId"`
	Requested string `json:"requested"`
	Available string `json:"available"`
}

// respondError renders err. Wrapped causes are logged, never sent.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return response.Error(c, fiber.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
	}

	status := statusFor(de.Code)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("code", string(de.Code)),
			zap.Error(err))
	}

	var details interface{}
	if de.Code == apperrors.CodeInsufficientFunds {
		details = insufficientFundsDetails{
			UpiID:     de.Address,
			Requested: de.Requested.StringFixed(2),
			Available: de.Available.StringFixed(2),
		}
	}
	return response.Error(c, status, string(de.Code), de.Message, details)
}

// ErrorHandler is the Fiber fallback for errors no handler rendered.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Code, "HTTP_ERROR", fe.Message, nil)
		}
		return respondError(c, logger, err)
	}
}

// bodyError is returned when the request body cannot be decoded.
func bodyError(c *fiber.Ctx) error {
	return response.BadRequest(c, "Invalid request body")
}
