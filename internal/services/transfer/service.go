package transfer

import (
	"context"
	"errors"
	"iter"
	"time"

	apperrors "upipay/internal/errors"
	"upipay/internal/events"
	"upipay/internal/lock"
	"upipay/internal/models"
	"upipay/internal/repositories"
	"upipay/internal/services/ledger"
	"upipay/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// Config tunes the engine.
type Config struct {
	// Timeout bounds lock acquisition plus the unit of work. Zero means
	// DefaultTimeout; negative disables the bound.
	Timeout time.Duration
}

type service struct {
	store     repositories.Store
	locker    lock.Locker
	ledger    ledger.Service
	cache     repositories.WalletCache
	publisher events.Publisher
	config    Config
	logger    *zap.Logger
}

// NewService creates a transfer engine. cache and publisher are optional.
func NewService(
	store repositories.Store,
	locker lock.Locker,
	ledgerSvc ledger.Service,
	cache repositories.WalletCache,
	publisher events.Publisher,
	config Config,
	logger *zap.Logger,
) Service {
	if store == nil {
		panic("store is required")
	}
	if locker == nil {
		panic("locker is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if cache == nil {
		cache = repositories.NoopWalletCache{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		store:     store,
		locker:    locker,
		ledger:    ledgerSvc,
		cache:     cache,
		publisher: publisher,
		config:    config,
		logger:    logger.Named("transfer"),
	}
}

func (s *service) Transfer(ctx context.Context, sender, receiver string, amount decimal.Decimal) (*models.Transaction, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if sender == receiver {
		return nil, apperrors.SameParty(sender)
	}
	for _, addr := range []string{sender, receiver} {
		if _, err := s.store.Parties().GetByAddress(ctx, addr); err != nil {
			return nil, err
		}
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	release, err := s.locker.Acquire(ctx, sender, receiver)
	if err != nil {
		s.logger.Warn("failed to acquire wallet locks",
			zap.String("sender", sender),
			zap.String("receiver", receiver),
			zap.Error(err))
		return nil, apperrors.TransferFailed(err)
	}
	defer release()

	var (
		entry   *models.Transaction
		updated []*models.Wallet
	)
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		var err error
		entry, updated, err = s.move(ctx, tx, sender, receiver, amount)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, sender, receiver, amount, err)
	}

	s.logger.Info("transfer completed",
		zap.String("transaction_id", entry.ID),
		zap.String("sender", sender),
		zap.String("receiver", receiver),
		zap.String("amount", amount.StringFixed(2)))
	s.refreshCache(ctx, updated)
	s.publish(ctx, entry)
	return entry, nil
}

// move runs inside the unit of work with both wallet locks held. It returns
// the SUCCESS entry and both wallets as they will be committed.
func (s *service) move(ctx context.Context, tx repositories.Store, sender, receiver string, amount decimal.Decimal) (*models.Transaction, []*models.Wallet, error) {
	wallets := tx.Wallets()

	// Row locks follow the same global order as the wallet locks.
	ordered, err := lock.Ordered(sender, receiver)
	if err != nil {
		return nil, nil, err
	}
	var from *models.Wallet
	for _, addr := range ordered {
		w, err := wallets.GetForUpdate(ctx, addr)
		if err != nil {
			return nil, nil, err
		}
		if addr == sender {
			from = w
		}
	}

	if from.Balance.LessThan(amount) {
		return nil, nil, apperrors.InsufficientFunds(sender, amount, from.Balance)
	}
	if _, err := wallets.Adjust(ctx, sender, amount.Neg()); err != nil {
		return nil, nil, err
	}
	if _, err := wallets.Adjust(ctx, receiver, amount); err != nil {
		return nil, nil, err
	}

	updated := make([]*models.Wallet, 0, 2)
	for _, addr := range []string{sender, receiver} {
		w, err := wallets.GetByAddress(ctx, addr)
		if err != nil {
			return nil, nil, err
		}
		updated = append(updated, w)
	}

	entry, err := s.ledger.RecordIn(ctx, tx.Ledger(), ledger.Entry{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Status:   models.TransactionStatusSuccess,
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, updated, nil
}

// fail records the FAILED entry for an attempt whose unit of work rolled
// back and maps err to the caller-facing error.
func (s *service) fail(ctx context.Context, sender, receiver string, amount decimal.Decimal, err error) error {
	var de *apperrors.DomainError
	insufficient := errors.As(err, &de) && de.Code == apperrors.CodeInsufficientFunds

	reason := apperrors.CodeTransferFailed
	if insufficient {
		reason = apperrors.CodeInsufficientFunds
	}
	entry := s.ledger.Record(ctx, ledger.Entry{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Status:   models.TransactionStatusFailed,
		Reason:   string(reason),
	})
	s.publish(ctx, entry)

	if insufficient {
		s.logger.Info("transfer rejected",
			zap.String("transaction_id", entry.ID),
			zap.String("sender", sender),
			zap.String("requested", amount.StringFixed(2)),
			zap.String("available", de.Available.StringFixed(2)))
		return de
	}

	s.logger.Error("transfer failed, rolled back",
		zap.String("transaction_id", entry.ID),
		zap.String("sender", sender),
		zap.String("receiver", receiver),
		zap.String("amount", amount.StringFixed(2)),
		zap.Error(err))
	return apperrors.TransferFailed(err)
}

// refreshCache writes the committed wallets through to the cache. The cache
// refuses older versions, so a concurrent read cannot put back a balance
// this transfer replaced. A wallet that cannot be written is evicted.
func (s *service) refreshCache(ctx context.Context, wallets []*models.Wallet) {
	ctx = context.WithoutCancel(ctx)
	for _, w := range wallets {
		if err := s.cache.SetWallet(ctx, w); err != nil {
			s.logger.Warn("failed to refresh cached balance", zap.String("upi_id", w.Address), zap.Error(err))
			if err := s.cache.DeleteWallet(ctx, w.Address); err != nil {
				s.logger.Warn("failed to evict cached balance", zap.String("upi_id", w.Address), zap.Error(err))
			}
		}
	}
}

// publish runs once per ledger entry and never affects the outcome.
func (s *service) publish(ctx context.Context, entry *models.Transaction) {
	ctx = context.WithoutCancel(ctx)
	if err := s.publisher.PublishTransaction(ctx, events.NewTransactionRecorded(entry)); err != nil {
		s.logger.Warn("failed to publish transaction event",
			zap.String("transaction_id", entry.ID),
			zap.Error(err))
	}
}

func (s *service) History(ctx context.Context, address string) (iter.Seq2[models.Transaction, error], error) {
	return s.ledger.History(ctx, address)
}
