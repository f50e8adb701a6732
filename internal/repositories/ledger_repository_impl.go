package repositories

import (
	"context"
	"fmt"
	"iter"
	"time"

	"upipay/internal/models"

	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Record(ctx context.Context, entry *models.Transaction) error {
	PrepareEntry(entry, time.Now())
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// History streams rows straight from the cursor; nothing is buffered.
func (r *ledgerRepository) History(ctx context.Context, address string) iter.Seq2[models.Transaction, error] {
	return func(yield func(models.Transaction, error) bool) {
		rows, err := r.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("sender_address = ? OR receiver_address = ?", address, address).
			Order("created_at DESC").
			Order("sequence DESC").
			Rows()
		if err != nil {
			yield(models.Transaction{}, fmt.Errorf("failed to query transaction history: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var entry models.Transaction
			if err := r.db.ScanRows(rows, &entry); err != nil {
				yield(models.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err))
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Transaction{}, fmt.Errorf("failed to read transaction history: %w", err))
		}
	}
}
