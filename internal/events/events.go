// Package events publishes recorded ledger entries to downstream consumers.
package events

import (
	"context"
	"time"

	"upipay/internal/models"

	"github.com/shopspring/decimal"
)

const TypeTransactionRecorded = "transaction.recorded"

// TransactionRecorded is emitted once per ledger entry, SUCCESS or FAILED.
type TransactionRecorded struct {
	Type          string                   `json:"type"`
	TransactionID string                   `json:"transactionId"`
	SenderUpi     string                   `json:"senderUpi"`
	ReceiverUpi   string                   `json:"receiverUpi"`
	Amount        decimal.Decimal          `json:"amount"`
	Status        models.TransactionStatus `json:"status"`
	FailureReason string                   `json:"failureReason,omitempty"`
	OccurredAt    time.Time                `json:"occurredAt"`
}

func NewTransactionRecorded(t *models.Transaction) TransactionRecorded {
	return TransactionRecorded{
		Type:          TypeTransactionRecorded,
		TransactionID: t.ID,
		SenderUpi:     t.SenderAddress,
		ReceiverUpi:   t.ReceiverAddress,
		Amount:        t.Amount,
		Status:        t.Status,
		FailureReason: t.FailureReason,
		OccurredAt:    t.CreatedAt,
	}
}

// Publisher delivers events. Publish must not block on the broker; delivery
// failures are the publisher's to report.
type Publisher interface {
	PublishTransaction(ctx context.Context, event TransactionRecorded) error
	Close() error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransaction(context.Context, TransactionRecorded) error { return nil }

func (NoopPublisher) Close() error { return nil }
