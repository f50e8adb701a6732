package handlers

import (
	"upipay/internal/models"
	"upipay/internal/services/party"
	"upipay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PartyHandler struct {
	partyService party.Service
	logger       *zap.Logger
}

func NewPartyHandler(partyService party.Service, logger *zap.Logger) *PartyHandler {
	return &PartyHandler{partyService: partyService, logger: logger}
}

func (h *PartyHandler) Register(c *fiber.Ctx) error {
	var input models.RegisterPartyInput
	if err := c.BodyParser(&input); err != nil {
		return bodyError(c)
	}

	p, err := h.partyService.Register(c.UserContext(), &input)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Created(c, "User registered successfully", p)
}

func (h *PartyHandler) GetProfile(c *fiber.Ctx) error {
	p, err := h.partyService.GetProfile(c.UserContext(), c.Params("upiId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return response.Success(c, "Profile fetched", p)
}
