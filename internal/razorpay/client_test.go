package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	var got createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "order_Nxyz123",
			"entity": "order",
			"amount": 24050,
			"amount_paid": 0,
			"currency": "INR",
			"receipt": "rcpt-1",
			"status": "created",
			"notes": []
		}`))
	}))
	defer srv.Close()

	c := NewClient("key_test", "secret_test", "INR", WithBaseURL(srv.URL))

	o, err := c.CreateOrder(context.Background(), decimal.RequireFromString("240.50"), "rcpt-1")
	require.NoError(t, err)

	assert.Equal(t, "order_Nxyz123", o.ID)
	assert.Equal(t, int64(24050), o.Amount)
	assert.Equal(t, "INR", o.Currency)

	assert.Equal(t, int64(24050), got.Amount, "amount is sent in paise")
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "rcpt-1", got.Receipt)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR"}}`))
	}))
	defer srv.Close()

	c := NewClient("key_test", "wrong", "INR", WithBaseURL(srv.URL))

	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(100), "rcpt-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCreateOrder_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amount": 100, "currency": "INR"}`))
	}))
	defer srv.Close()

	c := NewClient("key_test", "secret_test", "INR", WithBaseURL(srv.URL))

	_, err := c.CreateOrder(context.Background(), decimal.NewFromInt(1), "rcpt-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing order id")
}

func TestCreateOrder_DefaultCurrency(t *testing.T) {
	c := NewClient("key_test", "secret_test", "")
	assert.Equal(t, "INR", c.currency)
}

func TestDecodeOrder_Malformed(t *testing.T) {
	_, err := decodeOrder([]byte(`{"id": 42}`))
	require.Error(t, err)
}
