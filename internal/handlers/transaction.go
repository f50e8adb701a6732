package handlers

import (
	apperrors "upipay/internal/errors"
	"upipay/internal/services/transfer"
	"upipay/internal/utils"
	"upipay/internal/utils/response"
	"upipay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	transferService transfer.Service
	logger          *zap.Logger
}

func NewTransactionHandler(transferService transfer.Service, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{transferService: transferService, logger: logger}
}

type sendMoneyRequest struct {
	SenderUpi   string          `json:"senderUpi" validate:"required,upi"`
	ReceiverUpi string          `json:"receiverUpi" validate:"required,upi"`
	Amount      decimal.Decimal `json:"amount" validate:"money"`
}

// Send moves money from the caller's wallet to another party.
func (h *TransactionHandler) Send(c *fiber.Ctx) error {
	claims, err := utils.GetPartyClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input sendMoneyRequest
	if err := c.BodyParser(&input); err != nil {
		return bodyError(c)
	}
	if err := validation.Struct(&input); err != nil {
		return respondError(c, h.logger, err)
	}
	if !claims.Owns(input.SenderUpi) {
		return respondError(c, h.logger, apperrors.Forbidden(input.SenderUpi))
	}

	entry, err := h.transferService.Transfer(c.UserContext(), input.SenderUpi, input.ReceiverUpi, input.Amount)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, "Transaction successful", entry)
}

// History lists the entries involving :upiId, newest first. ?page and
// ?limit narrow the window; without them every entry is returned.
func (h *TransactionHandler) History(c *fiber.Ctx) error {
	seq, err := h.transferService.History(c.UserContext(), c.Params("upiId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	entries, err := utils.Collect(seq, utils.GetPagination(c, 1, 0))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, "Transaction history fetched", entries)
}
