package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ObserveAPI("GET", "/api/products", "200", 20*time.Millisecond)
	m.ObserveAPI("GET", "/api/products", "200", 40*time.Millisecond)
	m.IncOrderCreated()
	m.ObserveOrderPaid(2599)
	m.IncCartMerge("applied")

	if got := testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/api/products", "200")); got != 2 {
		t.Fatalf("api requests: want 2 got %v", got)
	}
	if got := testutil.ToFloat64(m.orderRevenue); got != 2599 {
		t.Fatalf("revenue: want 2599 got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"sf_http_requests_total", "sf_orders_paid_total", `sf_cart_merges_total{outcome="applied"} 1`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	m.IncCheckoutFailure("cart_empty")
	m.IncWebhook("payments", "x", "ok")
	m.IncCacheLookup(true)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil handler: want 404 got %d", rec.Code)
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(" api-key = abc , bad, x= ")
	if len(h) != 1 || h["api-key"] != "abc" {
		t.Fatalf("unexpected headers: %v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty should be nil")
	}
}
