package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test_key_secret"
	valid := sign("order_abc|pay_xyz", secret)

	assert.True(t, VerifyPaymentSignature("order_abc", "pay_xyz", valid, secret))
	assert.False(t, VerifyPaymentSignature("order_abc", "pay_xyz", valid, "wrong_secret"))
	assert.False(t, VerifyPaymentSignature("order_abc", "pay_other", valid, secret))
	assert.False(t, VerifyPaymentSignature("order_abc", "pay_xyz", "", secret))
	assert.False(t, VerifyPaymentSignature("order_abc", "pay_xyz", "deadbeef", secret))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "webhook_secret"
	body := []byte(`{"event":"payment.captured"}`)
	valid := sign(string(body), secret)

	assert.True(t, VerifyWebhookSignature(body, valid, secret))
	assert.False(t, VerifyWebhookSignature(body, valid, "other"))
	assert.False(t, VerifyWebhookSignature([]byte(`{"event":"tampered"}`), valid, secret))
	assert.False(t, VerifyWebhookSignature(body, "", secret))
}

func TestGatewayClientCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(92000), req["amount"])
		assert.Equal(t, "INR", req["currency"])
		assert.Equal(t, float64(1), req["payment_capture"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_test123",
			"amount":   92000,
			"currency": "INR",
			"status":   "created",
		})
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL, "key_id", "key_secret")
	order, err := client.CreateOrder(context.Background(), 92000, "INR", map[string]string{
		"order_number": "ORD-20260615-ABCDEF234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_test123", order.ID)
	assert.Equal(t, int64(92000), order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestGatewayClientCreateOrderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "amount must be at least 100",
			},
		})
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL, "key_id", "key_secret")
	_, err := client.CreateOrder(context.Background(), 1, "INR", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount must be at least 100")
}

func TestGatewayClientCreateOrderMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL, "key_id", "key_secret")
	_, err := client.CreateOrder(context.Background(), 500, "INR", nil)
	require.Error(t, err)
}
