// Package funding charges external payment instruments for wallet top-ups.
package funding

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest asks a source to collect Amount for the wallet at Address.
type ChargeRequest struct {
	Address         string
	Amount          decimal.Decimal
	PaymentMethodID string
}

// Charge is a collected payment.
type Charge struct {
	Reference string `json:"reference"`
	Provider  string `json:"provider"`
}

// Source collects money from outside the system.
type Source interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
	// Refund reverses a charge whose credit could not be applied.
	Refund(ctx context.Context, charge *Charge) error
}

// DirectSource accepts every top-up without an external payment. Used in
// development and when no payment provider is configured.
type DirectSource struct{}

func (DirectSource) Charge(context.Context, ChargeRequest) (*Charge, error) {
	return &Charge{Reference: "direct-" + uuid.NewString(), Provider: "direct"}, nil
}

func (DirectSource) Refund(context.Context, *Charge) error { return nil }
