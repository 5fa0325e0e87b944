// Package payment wraps the Paystack HTTP API: hosted-checkout initialization
// and webhook authentication.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.paystack.co"
	requestTimeout = 10 * time.Second
	maxAttempts    = 2
)

type PaystackProvider struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

// NewPaystackProvider builds a client against the given API base URL; an
// empty baseURL selects the production endpoint.
func NewPaystackProvider(secretKey, webhookSecret, baseURL string) *PaystackProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &PaystackProvider{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		client:        &http.Client{Timeout: requestTimeout},
	}
}

type InitializeParams struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type InitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializeTransaction creates a hosted checkout session for the given
// reference. Transport failures are retried once; an error response from
// Paystack is returned as-is without retrying.
func (p *PaystackProvider) InitializeTransaction(ctx context.Context, params InitializeParams) (*InitializeResponse, error) {
	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	url := fmt.Sprintf("%s/transaction/initialize", p.baseURL)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+p.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send request: %w", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		var result InitializeResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		if !result.Status {
			return nil, fmt.Errorf("paystack error: %s", result.Message)
		}

		return &result, nil
	}

	return nil, lastErr
}

// VerifyWebhookSignature authenticates an inbound webhook. The HMAC-SHA512
// digest is computed over the exact raw bytes of the request body; comparison
// is constant-time. A missing signature or empty body fails verification, it
// is never an error.
func (p *PaystackProvider) VerifyWebhookSignature(payload []byte, signature string) bool {
	if len(payload) == 0 || signature == "" || p.webhookSecret == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(p.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ChargeData carries the fields of a Paystack charge event this service
// consumes. Amount is in the minor currency unit (kobo).
type ChargeData struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
	Channel         string `json:"channel"`
	Currency        string `json:"currency"`
	Customer        struct {
		ID           int64  `json:"id"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Email        string `json:"email"`
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
}

type WebhookEvent struct {
	Event string     `json:"event"`
	Data  ChargeData `json:"data"`
}

func (p *PaystackProvider) ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}
	return &event, nil
}
