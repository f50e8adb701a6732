package wallet

import (
	"context"
	"time"

	"upipay/internal/models"
	"upipay/internal/services/funding"

	"github.com/shopspring/decimal"
)

// Service defines the main wallet service interface
type Service interface {
	// GetWallet returns the wallet at address.
	GetWallet(ctx context.Context, address string) (*models.Wallet, error)

	// TopUp charges the funding source and credits the wallet.
	TopUp(ctx context.Context, req TopUpRequest) (*TopUpResult, error)
}

// Config tunes the wallet service.
type Config struct {
	MaxTopUp decimal.Decimal
	Timeout  time.Duration
}

type TopUpRequest struct {
	Address         string
	Amount          decimal.Decimal
	PaymentMethodID string
}

type TopUpResult struct {
	Wallet *models.Wallet  `json:"wallet"`
	Charge *funding.Charge `json:"charge"`
}
