package funding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "upipay/internal/errors"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"go.uber.org/zap"
)

// StripeSource charges a card payment method through a confirmed
// PaymentIntent.
type StripeSource struct {
	api      *client.API
	currency string
	logger   *zap.Logger
}

// NewStripeSource builds a source on the default Stripe backends. backends
// may be nil.
func NewStripeSource(secretKey, currency string, backends *stripe.Backends, logger *zap.Logger) *StripeSource {
	if currency == "" {
		currency = string(stripe.CurrencyINR)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeSource{
		api:      client.New(secretKey, backends),
		currency: currency,
		logger:   logger,
	}
}

func (s *StripeSource) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.PaymentMethodID == "" {
		return nil, apperrors.InvalidArgument("paymentMethodId is required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount.Shift(2).IntPart()),
		Currency:           stripe.String(s.currency),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String("Wallet top-up for " + req.Address),
	}
	params.Context = ctx
	params.AddMetadata("upi_id", req.Address)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		if declined := asDecline(err); declined != nil {
			s.logger.Info("stripe charge declined",
				zap.String("upi_id", req.Address),
				zap.String("code", string(declined.Code)),
				zap.String("decline_code", string(declined.DeclineCode)))
			return nil, apperrors.InvalidArgument("payment declined: %s", declineReason(declined))
		}
		s.logger.Warn("stripe charge failed", zap.String("upi_id", req.Address), zap.Error(err))
		return nil, apperrors.TransferFailed(fmt.Errorf("stripe payment intent: %w", err))
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, apperrors.InvalidArgument("payment was not completed (status %s)", pi.Status)
	}
	return &Charge{Reference: pi.ID, Provider: "stripe"}, nil
}

func (s *StripeSource) Refund(ctx context.Context, charge *Charge) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(charge.Reference)}
	params.Context = ctx
	if _, err := s.api.Refunds.New(params); err != nil {
		return fmt.Errorf("stripe refund %s: %w", charge.Reference, err)
	}
	return nil
}

// asDecline returns the Stripe error when err is a card decline, which is
// the customer's outcome rather than a provider fault.
func asDecline(err error) *stripe.Error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return nil
	}
	if se.Type == stripe.ErrorTypeCard || se.HTTPStatusCode == http.StatusPaymentRequired {
		return se
	}
	return nil
}

func declineReason(se *stripe.Error) string {
	switch {
	case se.DeclineCode != "":
		return string(se.DeclineCode)
	case se.Code != "":
		return string(se.Code)
	default:
		return "card_error"
	}
}
