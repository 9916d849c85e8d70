package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/httpx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// Gateway creates and refunds payment intents with the card processor.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*PaymentIntent, error)
	Refund(ctx context.Context, paymentIntentID string, amountCents int64) (*Refund, error)
}

type Config struct {
	Mode          string        `yaml:"mode"`
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
}

type CreateIntentRequest struct {
	AmountCents    int64
	Currency       string
	Description    string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// New returns the HTTP gateway, or the offline gateway when Mode is "offline".
func New(log *logger.Logger, cfg Config) (Gateway, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.EqualFold(cfg.Mode, "offline") {
		log.Warn("Payments running in offline mode; intents are simulated")
		return &offlineGateway{}, nil
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing PAYMENTS_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &client{
		log:        log.With("client", "PaymentsClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func (c *client) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*PaymentIntent, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("payments: amount must be positive")
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", strings.ToLower(orDefault(req.Currency, "usd")))
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	if req.ReceiptEmail != "" {
		form.Set("receipt_email", req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var pi PaymentIntent
	if err := c.do(ctx, "/v1/payment_intents", form, req.IdempotencyKey, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (c *client) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}
	var r Refund
	key := "refund-" + paymentIntentID + "-" + strconv.FormatInt(amountCents, 10)
	if err := c.do(ctx, "/v1/refunds", form, key, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

type HTTPError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payments http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payments http %d", e.StatusCode)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) do(ctx context.Context, path string, form url.Values, idemKey string, out any) error {
	ctx = ctxutil.Default(ctx)
	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		resp, err := c.doOnce(ctx, path, form, idemKey, out)
		if err == nil {
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.cfg.MaxRetries {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("Payments request retrying", "path", path, "attempt", attempt+1, "sleep", sleepFor.String(), "error", err.Error())
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}

func (c *client) doOnce(ctx context.Context, path string, form url.Values, idemKey string, out any) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil {
			he.Type = env.Error.Type
			he.Message = env.Error.Message
		}
		return resp, he
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, fmt.Errorf("payments: decode response: %w", err)
		}
	}
	return resp, nil
}

// offlineGateway simulates the processor for local development.
type offlineGateway struct{}

func (offlineGateway) CreatePaymentIntent(_ context.Context, req CreateIntentRequest) (*PaymentIntent, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("payments: amount must be positive")
	}
	id := "pi_offline_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       req.AmountCents,
		Currency:     orDefault(req.Currency, "usd"),
		Metadata:     req.Metadata,
	}, nil
}

func (offlineGateway) Refund(_ context.Context, _ string, amountCents int64) (*Refund, error) {
	return &Refund{ID: "re_offline_" + uuid.NewString()[:8], Status: "succeeded", Amount: amountCents}, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
