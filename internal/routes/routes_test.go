package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"upipay/internal/handlers"
	"upipay/internal/lock"
	"upipay/internal/repositories/memory"
	"upipay/internal/services/auth"
	"upipay/internal/services/ledger"
	"upipay/internal/services/party"
	"upipay/internal/services/transfer"
	"upipay/internal/services/wallet"
	"upipay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

type api struct {
	t     *testing.T
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	locker := lock.NewLocalLocker()

	issuer, err := utils.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(store, logger)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger)})
	SetupRoutes(app, Deps{
		Auth:     auth.NewService(store.Parties(), issuer, logger),
		Parties:  party.NewService(store, bcrypt.MinCost, logger),
		Wallets:  wallet.NewService(store, locker, nil, nil, wallet.Config{}, logger),
		Transfer: transfer.NewService(store, locker, ledgerSvc, nil, nil, transfer.Config{}, logger),
		Health: map[string]handlers.Pinger{
			"database": store,
		},
		Logger: logger,
	})
	return &api{t: t, app: app, store: store}
}

func (a *api) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// signup registers a party and returns its access token.
func (a *api) signup(upi, phone string) string {
	a.t.Helper()
	status, _ := a.do(http.MethodPost, "/api/users/register", "", fiber.Map{
		"name": upi, "phoneNumber": phone, "upiId": upi, "pin": "1234",
	})
	require.Equal(a.t, http.StatusCreated, status)

	status, env := a.do(http.MethodPost, "/api/users/login", "", fiber.Map{
		"phoneNumber": phone, "pin": "1234",
	})
	require.Equal(a.t, http.StatusOK, status)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func (a *api) topUp(token, upi, amount string) {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/wallet/add", token, fiber.Map{"upiId": upi, "amount": amount})
	require.Equal(a.t, http.StatusOK, status, env.Message)
}

func (a *api) balance(token, upi string) string {
	a.t.Helper()
	status, env := a.do(http.MethodGet, "/api/wallet/"+upi, token, nil)
	require.Equal(a.t, http.StatusOK, status)
	var w struct {
		Balance json.Number `json:"balance"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &w))
	return w.Balance.String()
}

func TestSendMoney_EndToEnd(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice@upay", "9000000001")
	a.signup("bob@upay", "9000000002")
	a.topUp(alice, "alice@upay", "100")

	status, env := a.do(http.MethodPost, "/api/transaction/send", alice, fiber.Map{
		"senderUpi": "alice@upay", "receiverUpi": "bob@upay", "amount": "40",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	var entry struct {
		Status   string `json:"status"`
		Sender   string `json:"senderUpi"`
		Receiver string `json:"receiverUpi"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, "SUCCESS", entry.Status)
	assert.Equal(t, "alice@upay", entry.Sender)
	assert.Equal(t, "bob@upay", entry.Receiver)

	assert.Equal(t, "60", a.balance(alice, "alice@upay"))
	assert.Equal(t, "40", a.balance(alice, "bob@upay"))

	status, env = a.do(http.MethodGet, "/api/transaction/history/alice@upay", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var history []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 1)
}

func TestSendMoney_Rejections(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice@upay", "9000000001")
	bob := a.signup("bob@upay", "9000000002")
	a.topUp(alice, "alice@upay", "50")

	tests := []struct {
		name     string
		token    string
		body     fiber.Map
		status   int
		code     string
		balances map[string]string
	}{
		{
			name:   "insufficient funds",
			token:  alice,
			body:   fiber.Map{"senderUpi": "alice@upay", "receiverUpi": "bob@upay", "amount": "80"},
			status: http.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_FUNDS",
		},
		{
			name:   "same party",
			token:  alice,
			body:   fiber.Map{"senderUpi": "alice@upay", "receiverUpi": "alice@upay", "amount": "5"},
			status: http.StatusBadRequest,
			code:   "SAME_PARTY",
		},
		{
			name:   "unknown receiver",
			token:  alice,
			body:   fiber.Map{"senderUpi": "alice@upay", "receiverUpi": "carol@upay", "amount": "5"},
			status: http.StatusNotFound,
			code:   "PARTY_NOT_FOUND",
		},
		{
			name:   "zero amount",
			token:  alice,
			body:   fiber.Map{"senderUpi": "alice@upay", "receiverUpi": "bob@upay", "amount": "0"},
			status: http.StatusBadRequest,
			code:   "INVALID_ARGUMENT",
		},
		{
			name:   "sender not owned by caller",
			token:  bob,
			body:   fiber.Map{"senderUpi": "alice@upay", "receiverUpi": "bob@upay", "amount": "5"},
			status: http.StatusForbidden,
			code:   "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := a.do(http.MethodPost, "/api/transaction/send", tt.token, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, env.Code)
			assert.False(t, env.Success)
		})
	}

	assert.Equal(t, "50", a.balance(alice, "alice@upay"))
	assert.Equal(t, "0", a.balance(alice, "bob@upay"))
}

func TestSendMoney_InsufficientFundsDetails(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice@upay", "9000000001")
	a.signup("bob@upay", "9000000002")
	a.topUp(alice, "alice@upay", "30")

	status, env := a.do(http.MethodPost, "/api/transaction/send", alice, fiber.Map{
		"senderUpi": "alice@upay", "receiverUpi": "bob@upay", "amount": "45.50",
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var details struct {
		UpiID     string `json:"upiId"`
		Requested string `json:"requested"`
		Available string `json:"available"`
	}
	require.NoError(t, json.Unmarshal(env.Details, &details))
	assert.Equal(t, "alice@upay", details.UpiID)
	assert.Equal(t, "45.50", details.Requested)
	assert.Equal(t, "30.00", details.Available)

	// The failed attempt is still part of the history.
	status, env = a.do(http.MethodGet, "/api/transaction/history/alice@upay", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var history []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "FAILED", history[0].Status)
}

func TestRegister_Duplicates(t *testing.T) {
	a := newAPI(t)
	a.signup("alice@upay", "9000000001")

	status, env := a.do(http.MethodPost, "/api/users/register", "", fiber.Map{
		"name": "Other", "phoneNumber": "9000000009", "upiId": "alice@upay", "pin": "1234",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_ADDRESS", env.Code)

	status, env = a.do(http.MethodPost, "/api/users/register", "", fiber.Map{
		"name": "Other", "phoneNumber": "9000000001", "upiId": "other@upay", "pin": "1234",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_CONTACT", env.Code)
}

func TestAuth_Required(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodGet, "/api/wallet/alice@upay", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	status, _ = a.do(http.MethodGet, "/api/wallet/alice@upay", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogout_RevokesToken(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice@upay", "9000000001")

	status, _ := a.do(http.MethodPost, "/api/users/logout", alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = a.do(http.MethodGet, "/api/users/profile/alice@upay", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTopUp_OnlyOwnWallet(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice@upay", "9000000001")
	a.signup("bob@upay", "9000000002")

	status, env := a.do(http.MethodPost, "/api/wallet/add", alice, fiber.Map{"upiId": "bob@upay", "amount": "10"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Code)

	status, env = a.do(http.MethodPost, "/api/wallet/add", alice, fiber.Map{"upiId": "alice@upay", "amount": "1.234"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ARGUMENT", env.Code)
}

func TestHistory_Pagination(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice@upay", "9000000001")
	a.signup("bob@upay", "9000000002")
	a.topUp(alice, "alice@upay", "100")

	for _, amount := range []string{"1", "2", "3"} {
		status, _ := a.do(http.MethodPost, "/api/transaction/send", alice, fiber.Map{
			"senderUpi": "alice@upay", "receiverUpi": "bob@upay", "amount": amount,
		})
		require.Equal(t, http.StatusOK, status)
	}

	status, env := a.do(http.MethodGet, "/api/transaction/history/alice@upay?page=2&limit=2", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var page []struct {
		Amount json.Number `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "1", page[0].Amount.String())

	status, env = a.do(http.MethodGet, "/api/transaction/history/nobody@upay", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "PARTY_NOT_FOUND", env.Code)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck(map[string]handlers.Pinger{
		"redis": handlers.PingFunc(func(context.Context) error { return errors.New("down") }),
	}, map[string]handlers.Reporter{
		"funding": staticReport{"state": "open"},
	}))
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status   string                            `json:"status"`
		Services map[string]string                 `json:"services"`
		Details  map[string]map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Services["redis"])
	assert.Equal(t, "open", body.Details["funding"]["state"])
}

type staticReport map[string]interface{}

func (r staticReport) Report() map[string]interface{} { return r }
