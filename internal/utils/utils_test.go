package utils

import (
	"errors"
	"iter"
	"net/http/httptest"
	"testing"
	"time"

	"upipay/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	require.NoError(t, err)
	party := &models.Party{ID: 3, Address: "alice@upay", Phone: "9000000001", TokenVersion: 2}

	access, refresh, err := issuer.GenerateTokens(party)
	require.NoError(t, err)

	claims, err := issuer.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.PartyID)
	assert.Equal(t, "alice@upay", claims.Address)
	assert.Equal(t, 2, claims.TokenVersion)

	_, err = issuer.ParseAccessToken(refresh)
	assert.Error(t, err, "refresh token must not pass as access token")
	_, err = issuer.ParseRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	access, _, err := issuer.GenerateTokens(&models.Party{ID: 1, Address: "alice@upay"})
	require.NoError(t, err)

	_, err = issuer.ParseAccessToken(access)
	assert.Error(t, err)
}

func TestNewTokenIssuer_RequiresSecrets(t *testing.T) {
	_, err := NewTokenIssuer("", "refresh", time.Minute, time.Hour)
	assert.Error(t, err)
}

func numbers(n int, failAt int) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i := 1; i <= n; i++ {
			if i == failAt {
				yield(0, errors.New("read failed"))
				return
			}
			if !yield(i, nil) {
				return
			}
		}
	}
}

func TestCollect(t *testing.T) {
	all, err := Collect(numbers(5, 0), Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, all)

	page, err := Collect(numbers(5, 0), Pagination{Page: 2, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, page)

	// The failing element lies beyond the window, so it is never read.
	first, err := Collect(numbers(5, 3), Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, first)

	_, err = Collect(numbers(5, 3), Pagination{})
	assert.EqualError(t, err, "read failed")
}

func TestGetPagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetPagination(c, 1, 0)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/?page=3&limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Offset: 20}, got)

	_, err = app.Test(httptest.NewRequest("GET", "/?page=x&limit=-1", nil))
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 0, Offset: 0}, got)
}
