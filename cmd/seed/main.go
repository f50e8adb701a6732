// Command seed registers demo parties and funds their wallets.
//
// SEED_PARTIES lists upi:phone:pin:amount tuples separated by commas, for
// example "alice@upay:9000000001:1234:500". Parties that already exist are
// skipped.
package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"upipay/internal/config"
	apperrors "upipay/internal/errors"
	"upipay/internal/lock"
	"upipay/internal/logging"
	"upipay/internal/models"
	"upipay/internal/repositories"
	"upipay/internal/services/party"
	"upipay/internal/services/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultParties = "alice@upay:9000000001:1234:1000,bob@upay:9000000002:1234:500"

type seedParty struct {
	address string
	phone   string
	pin     string
	funds   decimal.Decimal
}

func parseParties(raw string) ([]seedParty, error) {
	var out []seedParty
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fields := strings.Split(item, ":")
		if len(fields) != 4 {
			return nil, errors.New("expected upi:phone:pin:amount, got " + item)
		}
		funds, err := decimal.NewFromString(fields[3])
		if err != nil {
			return nil, err
		}
		out = append(out, seedParty{address: fields[0], phone: fields[1], pin: fields[2], funds: funds})
	}
	return out, nil
}

func main() {
	config.LoadEnv()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	seeds, err := parseParties(config.GetEnv("SEED_PARTIES", defaultParties))
	if err != nil {
		logger.Fatal("invalid SEED_PARTIES", zap.Error(err))
	}

	db, err := repositories.OpenDB(cfg)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = repositories.CloseDB(db) }()

	store := repositories.NewStore(db)
	parties := party.NewService(store, cfg.BcryptCost, logger)
	wallets := wallet.NewService(store, lock.NewLocalLocker(), nil, nil, wallet.Config{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, s := range seeds {
		_, err := parties.Register(ctx, &models.RegisterPartyInput{
			Name:    strings.SplitN(s.address, "@", 2)[0],
			Phone:   s.phone,
			Address: s.address,
			Pin:     s.pin,
		})
		switch {
		case errors.Is(err, apperrors.ErrDuplicateAddress), errors.Is(err, apperrors.ErrDuplicateContact):
			logger.Info("party already exists", zap.String("upi_id", s.address))
			continue
		case err != nil:
			logger.Fatal("failed to register party", zap.String("upi_id", s.address), zap.Error(err))
		}

		if s.funds.IsPositive() {
			if _, err := wallets.TopUp(ctx, wallet.TopUpRequest{Address: s.address, Amount: s.funds}); err != nil {
				logger.Fatal("failed to fund wallet", zap.String("upi_id", s.address), zap.Error(err))
			}
		}
		logger.Info("seeded party", zap.String("upi_id", s.address), zap.String("balance", s.funds.StringFixed(2)))
	}
}
