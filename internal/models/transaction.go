package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionStatus is the outcome of a transfer attempt.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// ErrImmutableTransaction is returned by the GORM hooks when code tries to
// rewrite or remove a ledger entry.
var ErrImmutableTransaction = errors.New("ledger entries are append-only")

// Transaction is one ledger entry. It records a single transfer attempt and
// is never updated or deleted once written.
type Transaction struct {
	ID              string            `gorm:"primaryKey;type:uuid" json:"id"`
	Sequence        int64             `gorm:"autoIncrement;uniqueIndex;not null" json:"-"`
	SenderAddress   string            `gorm:"index;not null;size:256" json:"senderUpi"`
	ReceiverAddress string            `gorm:"index;not null;size:256" json:"receiverUpi"`
	Amount          decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status          TransactionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	FailureReason   string            `gorm:"type:varchar(32)" json:"failureReason,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"date"`
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

// Involves reports whether address is the sender or the receiver.
func (t *Transaction) Involves(address string) bool {
	return t.SenderAddress == address || t.ReceiverAddress == address
}
