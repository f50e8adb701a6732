package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "upipay/internal/errors"
	"upipay/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type partyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) PartyRepository {
	return &partyRepository{db: db}
}

func (r *partyRepository) Create(ctx context.Context, party *models.Party) error {
	if err := r.db.WithContext(ctx).Omit("Wallet").Create(party).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "phone") {
				return apperrors.DuplicateContact(party.Phone)
			}
			return apperrors.DuplicateAddress(party.Address)
		}
		return fmt.Errorf("failed to create party: %w", err)
	}
	return nil
}

func (r *partyRepository) GetByAddress(ctx context.Context, address string) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).Where("address = ?", address).First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.PartyNotFound(address)
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}
	return &party, nil
}

func (r *partyRepository) GetByPhone(ctx context.Context, phone string) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPartyNotFound
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}
	return &party, nil
}

func (r *partyRepository) ExistsByAddress(ctx context.Context, address string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Party{}).Where("address = ?", address).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check address: %w", err)
	}
	return count > 0, nil
}

func (r *partyRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Party{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return count > 0, nil
}

func (r *partyRepository) IncrementTokenVersion(ctx context.Context, address string) error {
	result := r.db.WithContext(ctx).Model(&models.Party{}).
		Where("address = ?", address).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment token version: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.PartyNotFound(address)
	}
	return nil
}
