package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// okHandler responds 200 "ok".
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok")) //nolint:errcheck
})

func callWithKey(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rr, req)
	return rr
}

func TestAPIKey_ModeNone_PassesThrough(t *testing.T) {
	rr := callWithKey(t, APIKey("none", "x-api-key", "secret"), "x-api-key", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_EmptyKey_PassesThrough(t *testing.T) {
	// key="" means auth is not configured → allow all.
	rr := callWithKey(t, APIKey("apikey", "x-api-key", ""), "x-api-key", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_CorrectKey_Passes(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "x-api-key", "supersecret"), "x-api-key", "supersecret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rr.Body.String())
	}
}

func TestAPIKey_WrongKey_Unauthorized(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "x-api-key", "supersecret"), "x-api-key", "wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestAPIKey_MissingHeader_Unauthorized(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "x-api-key", "supersecret"), "x-api-key", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestAPIKey_CustomHeader(t *testing.T) {
	mw := APIKey("apikey", "X-Mood-Token", "mytoken")
	if rr := callWithKey(t, mw, "x-mood-token", "mytoken"); rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (header names are case-insensitive)", rr.Code)
	}
	if rr := callWithKey(t, mw, "x-api-key", "mytoken"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("status on wrong header: got %d, want 401", rr.Code)
	}
}
