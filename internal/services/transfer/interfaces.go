package transfer

import (
	"context"
	"iter"

	"upipay/internal/models"

	"github.com/shopspring/decimal"
)

// Service moves funds between two wallets.
type Service interface {
	// Transfer debits sender and credits receiver by amount as one atomic
	// step and returns the SUCCESS ledger entry.
	//
	// Rejections before the critical section (INVALID_ARGUMENT, SAME_PARTY,
	// PARTY_NOT_FOUND, lock timeout) leave no ledger entry. Failures inside
	// it leave a FAILED entry: INSUFFICIENT_FUNDS as a business rejection,
	// anything else as a retryable TRANSFER_FAILED.
	Transfer(ctx context.Context, sender, receiver string, amount decimal.Decimal) (*models.Transaction, error)

	// History returns the entries involving address, newest first.
	History(ctx context.Context, address string) (iter.Seq2[models.Transaction, error], error)
}
