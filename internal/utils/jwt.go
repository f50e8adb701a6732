package utils

import (
	"errors"
	"strconv"
	"time"

	"upipay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "upipay-api"

// TokenIssuer signs and verifies access and refresh tokens. Refresh tokens
// are signed with their own secret so one can never stand in for the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("JWT secrets not configured")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// GenerateTokens generates an access token and a refresh token for the party.
func (t *TokenIssuer) GenerateTokens(party *models.Party) (accessToken string, refreshToken string, err error) {
	accessToken, err = t.sign(party, t.accessTTL, t.accessSecret)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = t.sign(party, t.refreshTTL, t.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (t *TokenIssuer) sign(party *models.Party, ttl time.Duration, secret []byte) (string, error) {
	now := t.now()
	claims := models.PartyClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(party.ID), 10),
		},
		PartyID:      party.ID,
		Address:      party.Address,
		Phone:        party.Phone,
		TokenVersion: party.TokenVersion,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccessToken parses and validates an access token.
func (t *TokenIssuer) ParseAccessToken(tokenStr string) (*models.PartyClaims, error) {
	return parse(tokenStr, t.accessSecret)
}

// ParseRefreshToken parses and validates a refresh token.
func (t *TokenIssuer) ParseRefreshToken(tokenStr string) (*models.PartyClaims, error) {
	return parse(tokenStr, t.refreshSecret)
}

func parse(tokenStr string, secret []byte) (*models.PartyClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.PartyClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.PartyClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
