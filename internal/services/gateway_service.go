package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// gatewayTimeout bounds the remote intent-creation call; a timed-out
// initiation leaves the payment pending for webhook reconciliation.
const gatewayTimeout = 15 * time.Second

// GatewayClient talks to the Razorpay-compatible payment gateway.
type GatewayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewGatewayClient constructs a GatewayClient for the given credentials.
func NewGatewayClient(baseURL, keyID, keySecret string) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: gatewayTimeout},
	}
}

// KeySecret exposes the shared secret used for callback signatures.
func (g *GatewayClient) KeySecret() string {
	return g.keySecret
}

type gatewayOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// GatewayOrder is the gateway-side payment intent.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type gatewayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates a payment intent for the given amount in minor units.
func (g *GatewayClient) CreateOrder(ctx context.Context, amountMinor int64, currency string, notes map[string]string) (*GatewayOrder, error) {
	payload := gatewayOrderRequest{
		Amount:         amountMinor,
		Currency:       currency,
		PaymentCapture: 1,
		Notes:          notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var gwErr gatewayErrorResponse
		if err := json.Unmarshal(respBody, &gwErr); err == nil && gwErr.Error.Description != "" {
			return nil, fmt.Errorf("gateway order failed: %s", gwErr.Error.Description)
		}
		return nil, fmt.Errorf("gateway order failed: status %d", resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("gateway order response missing id")
	}

	return &order, nil
}

// VerifyPaymentSignature checks the callback signature the gateway computes
// over "gateway_order_id|gateway_payment_id" with the shared key secret.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the webhook header signature computed over
// the raw request body with the webhook secret.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
