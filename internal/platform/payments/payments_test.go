package payments

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Unix(1_760_000_000, 0)
	header := Sign(payload, "whsec", now)

	if err := VerifySignature(payload, header, "whsec", DefaultTolerance, now.Add(time.Minute)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := VerifySignature(payload, header, "other", DefaultTolerance, now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong secret: want ErrBadSignature got %v", err)
	}
	if err := VerifySignature([]byte(`{}`), header, "whsec", DefaultTolerance, now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered payload: want ErrBadSignature got %v", err)
	}
	if err := VerifySignature(payload, header, "whsec", DefaultTolerance, now.Add(10*time.Minute)); !errors.Is(err, ErrStaleSignature) {
		t.Fatalf("stale: want ErrStaleSignature got %v", err)
	}
	if err := VerifySignature(payload, "", "whsec", DefaultTolerance, now); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("missing: want ErrMissingSignature got %v", err)
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":1200,"metadata":{"order_id":"o1"}}}}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Data.Object.ID != "pi_1" || ev.Data.Object.Metadata["order_id"] != "o1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if _, err := ParseEvent([]byte(`{"id":"x"}`)); err == nil {
		t.Fatalf("expected error for missing type")
	}
}

func TestClientCreatePaymentIntentRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.Header.Get("Idempotency-Key") != "order-1" {
			t.Errorf("missing idempotency key")
		}
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		if form.Get("amount") != "4200" || form.Get("metadata[order_id]") != "o1" {
			t.Errorf("unexpected form: %v", form)
		}
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret","status":"requires_payment_method","amount":4200}`))
	}))
	defer srv.Close()

	gw, err := New(logger.Nop(), Config{APIKey: "sk_test", BaseURL: srv.URL, MaxRetries: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pi, err := gw.CreatePaymentIntent(context.Background(), CreateIntentRequest{
		AmountCents:    4200,
		Currency:       "usd",
		Metadata:       map[string]string{"order_id": "o1"},
		IdempotencyKey: "order-1",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if pi.ID != "pi_123" || pi.ClientSecret == "" {
		t.Fatalf("unexpected intent: %+v", pi)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
}

func TestClientSurfacesCardErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","message":"declined"}}`))
	}))
	defer srv.Close()

	gw, err := New(logger.Nop(), Config{APIKey: "sk_test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = gw.CreatePaymentIntent(context.Background(), CreateIntentRequest{AmountCents: 100})
	var he *HTTPError
	if !errors.As(err, &he) || he.Type != "card_error" {
		t.Fatalf("expected card_error HTTPError, got %v", err)
	}
}

func TestOfflineGateway(t *testing.T) {
	gw, err := New(logger.Nop(), Config{Mode: "offline"})
	if err != nil {
		t.Fatalf("New offline: %v", err)
	}
	pi, err := gw.CreatePaymentIntent(context.Background(), CreateIntentRequest{AmountCents: 500})
	if err != nil || pi.ID == "" || pi.ClientSecret == "" {
		t.Fatalf("offline intent: %+v err=%v", pi, err)
	}
}
