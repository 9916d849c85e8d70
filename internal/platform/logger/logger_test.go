package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsCredentialsAndContact(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"access_token", "abc",
		"customer_email", "a@b.co",
		"order_id", "o-1",
	})
	if got[1] != "[REDACTED]" {
		t.Fatalf("access_token: want redacted got=%v", got[1])
	}
	if got[3] != "[REDACTED]" {
		t.Fatalf("customer_email: want redacted got=%v", got[3])
	}
	if got[5] != "o-1" {
		t.Fatalf("order_id: want passthrough got=%v", got[5])
	}
}

func TestSanitizeKVsHashesIdentifiers(t *testing.T) {
	got := sanitizeKVs([]interface{}{"guest_id", "2f1c"})
	s, ok := got[1].(string)
	if !ok || !strings.HasPrefix(s, "hash:") {
		t.Fatalf("guest_id: want hash prefix got=%v", got[1])
	}
	again := sanitizeKVs([]interface{}{"guest_id", "2f1c"})
	if again[1] != got[1] {
		t.Fatalf("hash must be stable: %v vs %v", got[1], again[1])
	}
}

func TestSanitizeKVsOddLengthKeepsTrailingKey(t *testing.T) {
	got := sanitizeKVs([]interface{}{"status", 200, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestSanitizeValueNestedMap(t *testing.T) {
	got := sanitizeValue("payload", map[string]interface{}{
		"password": "hunter2",
		"sku":      "TSHIRT-M",
	}).(map[string]interface{})
	if got["password"] != "[REDACTED]" || got["sku"] != "TSHIRT-M" {
		t.Fatalf("unexpected nested result: %#v", got)
	}
}
