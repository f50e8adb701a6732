package auth

import (
	"context"
	"errors"
	"strings"

	apperrors "upipay/internal/errors"
	"upipay/internal/models"
	"upipay/internal/repositories"
	"upipay/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Tokens is an access/refresh pair.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service interface {
	Login(ctx context.Context, phone, pin string) (*models.Party, *Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, address string) error
	// Verify validates an access token against the party's current token
	// version.
	Verify(ctx context.Context, accessToken string) (*models.PartyClaims, error)
}

type service struct {
	parties repositories.PartyRepository
	tokens  *utils.TokenIssuer
	logger  *zap.Logger
}

func NewService(parties repositories.PartyRepository, tokens *utils.TokenIssuer, logger *zap.Logger) Service {
	if parties == nil {
		panic("party repository is required")
	}
	if tokens == nil {
		panic("token issuer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{parties: parties, tokens: tokens, logger: logger.Named("auth")}
}

func (s *service) Login(ctx context.Context, phone, pin string) (*models.Party, *Tokens, error) {
	phone = strings.TrimSpace(phone)
	party, err := s.parties.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrPartyNotFound) {
			s.logger.Info("login failed: unknown phone")
			return nil, nil, apperrors.ErrUnauthorized
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(party.PinHash), []byte(strings.TrimSpace(pin))); err != nil {
		s.logger.Info("login failed: incorrect PIN", zap.Uint("party_id", party.ID))
		return nil, nil, apperrors.ErrUnauthorized
	}

	access, refresh, err := s.tokens.GenerateTokens(party)
	if err != nil {
		return nil, nil, err
	}
	return party, &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	party, err := s.current(ctx, claims)
	if err != nil {
		return nil, err
	}

	access, refresh, err := s.tokens.GenerateTokens(party)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) Logout(ctx context.Context, address string) error {
	return s.parties.IncrementTokenVersion(ctx, address)
}

func (s *service) Verify(ctx context.Context, accessToken string) (*models.PartyClaims, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if _, err := s.current(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// current loads the token's party and rejects tokens issued before the last
// logout.
func (s *service) current(ctx context.Context, claims *models.PartyClaims) (*models.Party, error) {
	party, err := s.parties.GetByAddress(ctx, claims.Address)
	if err != nil {
		if errors.Is(err, apperrors.ErrPartyNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if party.TokenVersion != claims.TokenVersion {
		return nil, apperrors.ErrUnauthorized
	}
	return party, nil
}
