package repositories

import (
	"context"
	"time"

	"upipay/internal/models"
)

// WalletCache holds read-through copies of wallet balances keyed by address.
// A miss is reported as (nil, nil). SetWallet never replaces a cached
// wallet that carries a higher Version.
type WalletCache interface {
	GetWallet(ctx context.Context, address string) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	DeleteWallet(ctx context.Context, addresses ...string) error
}

// Default cache expiration time
const DefaultExpiration = 5 * time.Minute

// NoopWalletCache never stores anything. Used when Redis is not configured.
type NoopWalletCache struct{}

func (NoopWalletCache) GetWallet(context.Context, string) (*models.Wallet, error) { return nil, nil }

func (NoopWalletCache) SetWallet(context.Context, *models.Wallet) error { return nil }

func (NoopWalletCache) DeleteWallet(context.Context, ...string) error { return nil }
