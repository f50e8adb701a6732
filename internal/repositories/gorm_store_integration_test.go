package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	apperrors "upipay/internal/errors"
	"upipay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skipf("TEST_DATABASE_DSN not set; skipping Postgres integration test")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Exec("TRUNCATE transactions, wallets, parties RESTART IDENTITY CASCADE").Error)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func registerTestParty(t *testing.T, s Store, address, phone string, funds int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.ExecuteInTransaction(ctx, func(tx Store) error {
		if err := tx.Parties().Create(ctx, &models.Party{Address: address, Phone: phone, Name: address, PinHash: "x"}); err != nil {
			return err
		}
		return tx.Wallets().Create(ctx, &models.Wallet{Address: address})
	}))
	if funds > 0 {
		_, err := s.Wallets().Adjust(ctx, address, decimal.NewFromInt(funds))
		require.NoError(t, err)
	}
}

func TestGormStore_DuplicateParty(t *testing.T) {
	s := NewStore(openTestDB(t))
	registerTestParty(t, s, "alice@upay", "9000000001", 0)
	ctx := context.Background()

	err := s.Parties().Create(ctx, &models.Party{Address: "bob@upay", Phone: "9000000001", Name: "bob", PinHash: "x"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateContact)

	err = s.Parties().Create(ctx, &models.Party{Address: "alice@upay", Phone: "9000000002", Name: "a", PinHash: "x"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateAddress)
}

func TestGormStore_RollbackAndConcurrentDebits(t *testing.T) {
	s := NewStore(openTestDB(t))
	registerTestParty(t, s, "a@upay", "9000000001", 100)
	registerTestParty(t, s, "b@upay", "9000000002", 0)
	ctx := context.Background()

	err := s.ExecuteInTransaction(ctx, func(tx Store) error {
		if _, err := tx.Wallets().Adjust(ctx, "a@upay", decimal.NewFromInt(-50)); err != nil {
			return err
		}
		return apperrors.TransferFailed(assert.AnError)
	})
	require.Error(t, err)
	w, err := s.Wallets().GetByAddress(ctx, "a@upay")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))

	var wg sync.WaitGroup
	results := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.ExecuteInTransaction(ctx, func(tx Store) error {
				if _, err := tx.Wallets().Adjust(ctx, "a@upay", decimal.NewFromInt(-40)); err != nil {
					return err
				}
				_, err := tx.Wallets().Adjust(ctx, "b@upay", decimal.NewFromInt(40))
				return err
			})
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 2, succeeded)
	total, err := s.Wallets().TotalBalance(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(100)))
}

func TestGormStore_HistoryOrder(t *testing.T) {
	s := NewStore(openTestDB(t))
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Second)

	for _, e := range []*models.Transaction{
		{SenderAddress: "a@upay", ReceiverAddress: "b@upay", Amount: decimal.NewFromInt(1), Status: models.TransactionStatusSuccess, CreatedAt: at},
		{SenderAddress: "b@upay", ReceiverAddress: "a@upay", Amount: decimal.NewFromInt(2), Status: models.TransactionStatusFailed, CreatedAt: at},
		{SenderAddress: "c@upay", ReceiverAddress: "b@upay", Amount: decimal.NewFromInt(3), Status: models.TransactionStatusSuccess, CreatedAt: at.Add(time.Second)},
	} {
		require.NoError(t, s.Ledger().Record(ctx, e))
	}

	var amounts []string
	for e, err := range s.Ledger().History(ctx, "a@upay") {
		require.NoError(t, err)
		amounts = append(amounts, e.Amount.String())
	}
	assert.Equal(t, []string{"2", "1"}, amounts)
}
