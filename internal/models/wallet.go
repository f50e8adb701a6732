package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds the current balance of exactly one party.
type Wallet struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Address   string          `gorm:"uniqueIndex;not null;size:256" json:"upiId"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:chk_wallets_balance_non_negative,balance >= 0" json:"balance"`
	Version   int64           `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets are always opened empty; funds only arrive through Adjust.
	w.Balance = decimal.Zero
	w.Version = 1
	return nil
}
