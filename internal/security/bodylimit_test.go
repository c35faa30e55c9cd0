package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postThrough(t *testing.T, limit BodyLimit, body string, declared int64) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var captured string
	handler := limit.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/payload", strings.NewReader(body))
	if declared != 0 {
		req.ContentLength = declared
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, captured
}

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	rr, captured := postThrough(t, BodyLimit{Max: 10}, "hello", 0)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured != "hello" {
		t.Fatalf("expected body to pass through, got %q", captured)
	}
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	rr, _ := postThrough(t, BodyLimit{Max: 5}, "excessive", 0)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	rr, _ := postThrough(t, BodyLimit{Max: 5}, "content", 100)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for declared oversized body, got %d", rr.Code)
	}
}
