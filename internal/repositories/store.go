// Package repositories provides data access layer implementations.
// It owns the party directory, the wallet store and the ledger, and the unit
// of work that lets a transfer mutate several of them atomically.
package repositories

import (
	"context"
	"errors"
	"iter"
	"time"

	"upipay/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrConcurrentUpdate is returned by Adjust when the wallet changed between
// the read and the conditional write.
var ErrConcurrentUpdate = errors.New("wallet was modified concurrently")

// PartyRepository is the party directory.
type PartyRepository interface {
	// Create persists a new party. Duplicate address or phone yields
	// DUPLICATE_ADDRESS or DUPLICATE_CONTACT.
	Create(ctx context.Context, party *models.Party) error

	// GetByAddress fails with PARTY_NOT_FOUND when the address is unknown.
	GetByAddress(ctx context.Context, address string) (*models.Party, error)

	// GetByPhone fails with PARTY_NOT_FOUND when the phone is unknown.
	GetByPhone(ctx context.Context, phone string) (*models.Party, error)

	ExistsByAddress(ctx context.Context, address string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// IncrementTokenVersion invalidates every token issued to the party.
	IncrementTokenVersion(ctx context.Context, address string) error
}

// WalletRepository is the wallet store.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error

	// GetByAddress fails with WALLET_NOT_FOUND when no wallet exists.
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)

	// GetForUpdate reads the wallet and, inside a unit of work, holds it
	// against concurrent writers until commit or rollback.
	GetForUpdate(ctx context.Context, address string) (*models.Wallet, error)

	// Adjust applies delta as one atomic read-modify-write and returns the
	// new balance. A result below zero fails with INSUFFICIENT_FUNDS and
	// leaves the wallet untouched.
	Adjust(ctx context.Context, address string, delta decimal.Decimal) (decimal.Decimal, error)

	// TotalBalance sums every wallet balance.
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// LedgerRepository is the append-only transaction ledger.
type LedgerRepository interface {
	// Record appends an entry, assigning ID and timestamp when unset.
	Record(ctx context.Context, entry *models.Transaction) error

	// History yields every entry where address is sender or receiver,
	// newest first. Each range over the returned sequence reads a fresh
	// snapshot.
	History(ctx context.Context, address string) iter.Seq2[models.Transaction, error]
}

// Store groups the repositories and opens units of work over them.
type Store interface {
	Parties() PartyRepository
	Wallets() WalletRepository
	Ledger() LedgerRepository

	// ExecuteInTransaction runs fn against a transaction-scoped Store.
	// Everything fn writes is committed if it returns nil and discarded
	// otherwise, including when ctx is cancelled before commit.
	ExecuteInTransaction(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}

// PrepareEntry fills the identity fields of a new ledger entry.
func PrepareEntry(entry *models.Transaction, now time.Time) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now.UTC()
	}
}
