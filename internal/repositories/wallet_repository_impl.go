package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "upipay/internal/errors"
	"upipay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return r.get(r.db.WithContext(ctx), address)
}

func (r *walletRepository) GetForUpdate(ctx context.Context, address string) (*models.Wallet, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), address)
}

func (r *walletRepository) get(db *gorm.DB, address string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Where("address = ?", address).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WalletNotFound(address)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// Adjust locks the row, checks the resulting balance and writes it back
// guarded by the version stamp read under that lock.
func (r *walletRepository) Adjust(ctx context.Context, address string, delta decimal.Decimal) (decimal.Decimal, error) {
	wallet, err := r.GetForUpdate(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := wallet.Balance.Add(delta)
	if newBalance.IsNegative() {
		return wallet.Balance, apperrors.InsufficientFunds(address, delta.Neg(), wallet.Balance)
	}

	result := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, wallet.Version).
		Updates(map[string]interface{}{
			"balance":    newBalance,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return decimal.Zero, fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, ErrConcurrentUpdate
	}
	return newBalance, nil
}

func (r *walletRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.Wallet{}).Select("COALESCE(SUM(balance), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total balance: %w", err)
	}
	return total, nil
}
