// Package ledger records transfer attempts and serves party history.
package ledger

import (
	"context"
	"iter"
	"time"

	"upipay/internal/models"
	"upipay/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	// Record appends an entry outside any unit of work and returns it. A
	// persistence failure is logged, never returned.
	Record(ctx context.Context, entry Entry) *models.Transaction

	// RecordIn appends an entry through repo, normally the ledger of an open
	// unit of work, so that the entry commits or rolls back with it.
	RecordIn(ctx context.Context, repo repositories.LedgerRepository, entry Entry) (*models.Transaction, error)

	// History returns every entry involving address, newest first. It fails
	// with PARTY_NOT_FOUND when the address is unknown.
	History(ctx context.Context, address string) (iter.Seq2[models.Transaction, error], error)
}

// Entry describes one attempt to be recorded.
type Entry struct {
	Sender   string
	Receiver string
	Amount   decimal.Decimal
	Status   models.TransactionStatus
	Reason   string
}

type service struct {
	store  repositories.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store repositories.Store, logger *zap.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{store: store, logger: logger, now: time.Now}
}

func (s *service) newEntry(e Entry) *models.Transaction {
	entry := &models.Transaction{
		SenderAddress:   e.Sender,
		ReceiverAddress: e.Receiver,
		Amount:          e.Amount,
		Status:          e.Status,
		FailureReason:   e.Reason,
	}
	repositories.PrepareEntry(entry, s.now())
	return entry
}

func (s *service) Record(ctx context.Context, e Entry) *models.Transaction {
	entry := s.newEntry(e)
	// The attempt already happened; a cancelled caller must not erase it.
	if err := s.store.Ledger().Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("failed to record ledger entry",
			zap.String("transaction_id", entry.ID),
			zap.String("sender", entry.SenderAddress),
			zap.String("receiver", entry.ReceiverAddress),
			zap.String("amount", entry.Amount.StringFixed(2)),
			zap.String("status", string(entry.Status)),
			zap.Error(err))
	}
	return entry
}

func (s *service) RecordIn(ctx context.Context, repo repositories.LedgerRepository, e Entry) (*models.Transaction, error) {
	entry := s.newEntry(e)
	if err := repo.Record(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, address string) (iter.Seq2[models.Transaction, error], error) {
	if _, err := s.store.Parties().GetByAddress(ctx, address); err != nil {
		return nil, err
	}
	return s.store.Ledger().History(ctx, address), nil
}
