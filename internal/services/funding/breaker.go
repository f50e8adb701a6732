package funding

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "upipay/internal/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker around a payment provider.
type BreakerConfig struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

// BreakerSource fails fast once the wrapped provider keeps erroring.
// Declined payments are business outcomes and never count as failures.
type BreakerSource struct {
	next    Source
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewBreakerSource(name string, next Source, cfg BreakerConfig, logger *zap.Logger) *BreakerSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg = DefaultBreakerConfig()
	}
	s := &BreakerSource{next: next, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "funding-" + name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || apperrors.CodeOf(err) == apperrors.CodeInvalidArgument
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("funding circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return s
}

func (s *BreakerSource) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.next.Charge(ctx, req)
	})
	if err != nil {
		return nil, s.translate(err)
	}
	return res.(*Charge), nil
}

// Refund bypasses the breaker; a refund owed to a customer is always attempted.
func (s *BreakerSource) Refund(ctx context.Context, charge *Charge) error {
	return s.next.Refund(ctx, charge)
}

func (s *BreakerSource) State() gobreaker.State {
	return s.breaker.State()
}

// Report exposes the breaker state for the health endpoint.
func (s *BreakerSource) Report() map[string]interface{} {
	counts := s.breaker.Counts()
	return map[string]interface{}{
		"state":                s.State().String(),
		"consecutive_failures": counts.ConsecutiveFailures,
	}
}

func (s *BreakerSource) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.logger.Warn("funding provider unavailable", zap.String("breaker", s.breaker.Name()), zap.Error(err))
		return apperrors.TransferFailed(fmt.Errorf("%s: %w", s.breaker.Name(), err))
	}
	return err
}
