package handlers

import (
	apperrors "upipay/internal/errors"
	"upipay/internal/services/wallet"
	"upipay/internal/utils"
	"upipay/internal/utils/response"
	"upipay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService wallet.Service
	logger        *zap.Logger
}

func NewWalletHandler(walletService wallet.Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, logger: logger}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	w, err := h.walletService.GetWallet(c.UserContext(), c.Params("upiId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, "Wallet fetched", w)
}

type topUpRequest struct {
	UpiID           string          `json:"upiId" validate:"required,upi"`
	Amount          decimal.Decimal `json:"amount" validate:"money"`
	PaymentMethodID string          `json:"paymentMethodId"`
}

// TopUp credits the caller's own wallet.
func (h *WalletHandler) TopUp(c *fiber.Ctx) error {
	claims, err := utils.GetPartyClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input topUpRequest
	if err := c.BodyParser(&input); err != nil {
		return bodyError(c)
	}
	if err := validation.Struct(&input); err != nil {
		return respondError(c, h.logger, err)
	}
	if !claims.Owns(input.UpiID) {
		return respondError(c, h.logger, apperrors.Forbidden(input.UpiID))
	}

	res, err := h.walletService.TopUp(c.UserContext(), wallet.TopUpRequest{
		Address:         input.UpiID,
		Amount:          input.Amount,
		PaymentMethodID: input.PaymentMethodID,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, "Money added successfully", res)
}
