package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	var got orderRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_cle", user)
		assert.Equal(t, "test_secret", pass)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{"id": "order_gw_1", "status": "created"})
	}))
	defer ts.Close()

	client := NewClient("rzp_test_cle", "test_secret", ts.URL)

	id, err := client.CreateOrder(context.Background(), 49900, "INR", "rcpt_42")
	require.NoError(t, err)
	assert.Equal(t, "order_gw_1", id)

	// le montant envoyé est bien en unité mineure
	assert.Equal(t, int64(49900), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "rcpt_42", got.Receipt)
}

func TestCreateOrderGatewayError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"description":"Authentication failed"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewClient("rzp_test_cle", "mauvais_secret", ts.URL)

	_, err := client.CreateOrder(context.Background(), 100, "INR", "rcpt_1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestCreateOrderServerDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // serveur volontairement fermé

	client := NewClient("rzp_test_cle", "test_secret", ts.URL)

	_, err := client.CreateOrder(context.Background(), 100, "INR", "rcpt_1")
	assert.Error(t, err)
}

func TestCreateOrderEmptyID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient("rzp_test_cle", "test_secret", ts.URL)

	_, err := client.CreateOrder(context.Background(), 100, "INR", "rcpt_1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
}

func TestVerifyPaymentSignatureUsesClientSecret(t *testing.T) {
	client := NewClient("rzp_test_cle", "test_secret", "")

	assert.True(t, client.VerifyPaymentSignature("order_gw_1", "pay_1",
		"3dd847205988fe025e6e44889043af502036dd809ab614df2263cefa9cc068ab"))
	assert.False(t, client.VerifyPaymentSignature("order_gw_1", "pay_1", "deadbeef"))
}
