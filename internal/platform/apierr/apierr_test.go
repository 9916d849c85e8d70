package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromUnwrapsWrappedError(t *testing.T) {
	base := Conflict("already_reviewed", "already reviewed")
	wrapped := fmt.Errorf("create review: %w", base)

	got := From(wrapped)
	if got.Status != http.StatusConflict || got.Code != "already_reviewed" {
		t.Fatalf("unexpected: status=%d code=%s", got.Status, got.Code)
	}
	if !IsStatus(wrapped, http.StatusConflict) {
		t.Fatalf("IsStatus should see wrapped conflict")
	}
}

func TestFromPlainErrorIsInternal(t *testing.T) {
	got := From(errors.New("db down"))
	if got.Status != http.StatusInternalServerError || got.Code != "internal" {
		t.Fatalf("unexpected: status=%d code=%s", got.Status, got.Code)
	}
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if msg := (&Error{Code: "not_found"}).Error(); msg != "not_found" {
		t.Fatalf("code fallback: %q", msg)
	}
	if msg := (&Error{Status: 418}).Error(); msg != "api error (418)" {
		t.Fatalf("status fallback: %q", msg)
	}
}
