// Package party registers parties and serves their profiles.
package party

import (
	"context"
	"fmt"
	"strings"

	apperrors "upipay/internal/errors"
	"upipay/internal/models"
	"upipay/internal/repositories"
	"upipay/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// Register creates the party and its empty wallet in one unit of work.
	Register(ctx context.Context, input *models.RegisterPartyInput) (*models.Party, error)
	GetProfile(ctx context.Context, address string) (*models.Party, error)
}

type service struct {
	store      repositories.Store
	bcryptCost int
	logger     *zap.Logger
}

func NewService(store repositories.Store, bcryptCost int, logger *zap.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{store: store, bcryptCost: bcryptCost, logger: logger.Named("party")}
}

func (s *service) Register(ctx context.Context, input *models.RegisterPartyInput) (*models.Party, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	parties := s.store.Parties()
	if exists, err := parties.ExistsByPhone(ctx, input.Phone); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.DuplicateContact(input.Phone)
	}
	if exists, err := parties.ExistsByAddress(ctx, input.Address); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.DuplicateAddress(input.Address)
	}

	hashedPin, err := bcrypt.GenerateFromPassword([]byte(input.Pin), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	party := &models.Party{
		Name:    input.Name,
		Phone:   input.Phone,
		Address: input.Address,
		PinHash: string(hashedPin),
	}
	wallet := &models.Wallet{Address: input.Address}

	// The existence checks above are advisory; the unique indexes decide.
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Parties().Create(ctx, party); err != nil {
			return err
		}
		return tx.Wallets().Create(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}

	party.Wallet = wallet
	s.logger.Info("party registered", zap.String("upi_id", party.Address), zap.Uint("party_id", party.ID))
	return party, nil
}

func (s *service) GetProfile(ctx context.Context, address string) (*models.Party, error) {
	return s.store.Parties().GetByAddress(ctx, strings.TrimSpace(address))
}
