package wallet

import (
	"context"
	"fmt"

	apperrors "upipay/internal/errors"
	"upipay/internal/lock"
	"upipay/internal/models"
	"upipay/internal/repositories"
	"upipay/internal/services/funding"
	"upipay/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	store   repositories.Store
	locker  lock.Locker
	cache   repositories.WalletCache
	funding funding.Source
	config  Config
	logger  *zap.Logger
}

// NewService creates a new wallet service
func NewService(
	store repositories.Store,
	locker lock.Locker,
	cache repositories.WalletCache,
	source funding.Source,
	config Config,
	logger *zap.Logger,
) Service {
	if store == nil {
		panic("store is required")
	}
	if locker == nil {
		panic("locker is required")
	}
	if cache == nil {
		cache = repositories.NoopWalletCache{}
	}
	if source == nil {
		source = funding.DirectSource{}
	}
	if config.MaxTopUp.IsZero() {
		config.MaxTopUp = decimal.RequireFromString(DefaultMaxTopUp)
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		store:   store,
		locker:  locker,
		cache:   cache,
		funding: source,
		config:  config,
		logger:  logger.Named("wallet"),
	}
}

// refreshCache writes a committed wallet through to the cache, evicting it
// when the write fails.
func (s *service) refreshCache(ctx context.Context, wallet *models.Wallet) {
	if err := s.cache.SetWallet(ctx, wallet); err != nil {
		s.logger.Warn("failed to refresh cached balance", zap.String("upi_id", wallet.Address), zap.Error(err))
		if err := s.cache.DeleteWallet(ctx, wallet.Address); err != nil {
			s.logger.Warn("failed to evict cached balance", zap.String("upi_id", wallet.Address), zap.Error(err))
		}
	}
}

// GetWallet serves the cached wallet when present. Fills race with
// committed writes safely because the cache keeps the highest version.
func (s *service) GetWallet(ctx context.Context, address string) (*models.Wallet, error) {
	cached, err := s.cache.GetWallet(ctx, address)
	if err != nil {
		s.logger.Warn("wallet cache read failed", zap.String("upi_id", address), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	if _, err := s.store.Parties().GetByAddress(ctx, address); err != nil {
		return nil, err
	}
	wallet, err := s.store.Wallets().GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetWallet(ctx, wallet); err != nil {
		s.logger.Warn("wallet cache write failed", zap.String("upi_id", address), zap.Error(err))
	}
	return wallet, nil
}

func (s *service) TopUp(ctx context.Context, req TopUpRequest) (*TopUpResult, error) {
	if err := s.validateTopUp(req.Amount); err != nil {
		return nil, err
	}
	if _, err := s.store.Parties().GetByAddress(ctx, req.Address); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	charge, err := s.funding.Charge(ctx, funding.ChargeRequest{
		Address:         req.Address,
		Amount:          req.Amount,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return nil, err
	}

	wallet, err := s.credit(ctx, req.Address, req.Amount)
	if err != nil {
		if rerr := s.funding.Refund(context.WithoutCancel(ctx), charge); rerr != nil {
			s.logger.Error("failed to refund top-up charge",
				zap.String("upi_id", req.Address),
				zap.String("reference", charge.Reference),
				zap.Error(rerr))
		}
		s.logger.Error("top-up failed",
			zap.String("upi_id", req.Address),
			zap.String("amount", req.Amount.StringFixed(2)),
			zap.Error(err))
		if apperrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, apperrors.TransferFailed(err)
	}

	s.refreshCache(context.WithoutCancel(ctx), wallet)
	s.logger.Info("wallet topped up",
		zap.String("upi_id", req.Address),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("provider", charge.Provider),
		zap.String("reference", charge.Reference))

	return &TopUpResult{Wallet: wallet, Charge: charge}, nil
}

func (s *service) validateTopUp(amount decimal.Decimal) error {
	if amount.LessThan(validation.MinTopUpAmount) {
		return apperrors.InvalidArgument("minimum amount is %s", validation.MinTopUpAmount.StringFixed(2))
	}
	if amount.GreaterThan(s.config.MaxTopUp) {
		return apperrors.InvalidArgument("maximum amount is %s", s.config.MaxTopUp.StringFixed(2))
	}
	return validation.ValidateAmount(amount)
}

func (s *service) credit(ctx context.Context, address string, amount decimal.Decimal) (*models.Wallet, error) {
	release, err := s.locker.Acquire(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	defer release()

	var wallet *models.Wallet
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Wallets().Adjust(ctx, address, amount); err != nil {
			return err
		}
		w, err := tx.Wallets().GetByAddress(ctx, address)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}
