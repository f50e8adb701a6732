package funding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "upipay/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

type stripeStub struct {
	mu    sync.Mutex
	forms map[string]url.Values
}

func newStripeStub(t *testing.T, status string) (*StripeSource, *stripeStub) {
	t.Helper()
	stub := &stripeStub{forms: map[string]url.Values{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		stub.mu.Lock()
		stub.forms[r.URL.Path] = r.PostForm
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/payment_intents":
			_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"` + status + `"}`))
		case "/v1/refunds":
			_, _ = w.Write([]byte(`{"id":"re_123","object":"refund","status":"succeeded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewStripeSource("sk_test_123", "inr", &stripe.Backends{API: backend}, nil), stub
}

func TestStripeSource_Charge(t *testing.T) {
	src, stub := newStripeStub(t, "succeeded")

	charge, err := src.Charge(context.Background(), ChargeRequest{
		Address:         "alice@upay",
		Amount:          decimal.RequireFromString("250.75"),
		PaymentMethodID: "pm_card_visa",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", charge.Reference)
	assert.Equal(t, "stripe", charge.Provider)
	form := stub.forms["/v1/payment_intents"]
	assert.Equal(t, "25075", form.Get("amount"))
	assert.Equal(t, "inr", form.Get("currency"))
	assert.Equal(t, "pm_card_visa", form.Get("payment_method"))
	assert.Equal(t, "alice@upay", form.Get("metadata[upi_id]"))
}

func TestStripeSource_ChargeNotCompleted(t *testing.T) {
	src, _ := newStripeStub(t, "requires_action")

	_, err := src.Charge(context.Background(), ChargeRequest{Address: "alice@upay", Amount: decimal.NewFromInt(10), PaymentMethodID: "pm_card_visa"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestStripeSource_RequiresPaymentMethod(t *testing.T) {
	src, _ := newStripeStub(t, "succeeded")

	_, err := src.Charge(context.Background(), ChargeRequest{Address: "alice@upay", Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestStripeSource_Refund(t *testing.T) {
	src, stub := newStripeStub(t, "succeeded")

	require.NoError(t, src.Refund(context.Background(), &Charge{Reference: "pi_123", Provider: "stripe"}))
	assert.Equal(t, "pi_123", stub.forms["/v1/refunds"].Get("payment_intent"))
}

func TestDirectSource(t *testing.T) {
	charge, err := DirectSource{}.Charge(context.Background(), ChargeRequest{Address: "alice@upay", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "direct", charge.Provider)
	assert.Contains(t, charge.Reference, "direct-")
	assert.NoError(t, DirectSource{}.Refund(context.Background(), charge))
}

func newDecliningStripe(t *testing.T) (*StripeSource, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds","message":"Your card has insufficient funds."}}`))
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewStripeSource("sk_test_123", "inr", &stripe.Backends{API: backend}, nil), calls
}

func TestStripeSource_DeclineIsNotRetryable(t *testing.T) {
	src, _ := newDecliningStripe(t)

	_, err := src.Charge(context.Background(), ChargeRequest{Address: "alice@upay", Amount: decimal.NewFromInt(10), PaymentMethodID: "pm_card_chargeDeclined"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.False(t, apperrors.IsRetryable(err))
	assert.Contains(t, err.Error(), "insufficient_funds")
}

func TestStripeSource_DeclinesKeepBreakerClosed(t *testing.T) {
	stripeSource, calls := newDecliningStripe(t)
	src := NewBreakerSource("stripe", stripeSource, BreakerConfig{
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Hour,
		HalfOpenRequests:    1,
	}, nil)

	for i := 0; i < 5; i++ {
		_, err := src.Charge(context.Background(), ChargeRequest{Address: "alice@upay", Amount: decimal.NewFromInt(10), PaymentMethodID: "pm_card_chargeDeclined"})
		assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))
	}
	assert.Equal(t, gobreaker.StateClosed, src.State())
	assert.Equal(t, int32(5), calls.Load())
}
