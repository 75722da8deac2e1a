package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moodmate/moodmate/server/internal/auth"
	"github.com/moodmate/moodmate/server/internal/metrics"
	"github.com/moodmate/moodmate/server/internal/ratelimit"
)

const testKey = "s3cret"

func ok(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Route", name)
		w.WriteHeader(http.StatusOK)
	})
}

// newTestMux mounts stub handlers behind a one-request-per-client limiter and
// an API key guard.
func newTestMux() *http.ServeMux {
	return newMux(routes{
		page:       ok("page"),
		api:        ok("api"),
		stream:     ok("stream"),
		metrics:    metrics.New(),
		limiter:    ratelimit.New(0.001, 1, 0),
		requireKey: auth.APIKey("apikey", "x-api-key", testKey),
	})
}

func do(mux http.Handler, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestNewMux_Wiring(t *testing.T) {
	tests := []struct {
		path    string
		route   string
		keyed   bool
		limited bool
	}{
		{"/", "page", false, false},
		{"/static/style.css", "page", false, false},
		{"/analyze", "api", false, true},
		{"/analyze/abc/steps", "api", false, true},
		{"/api/v1/analyses/abc/steps", "api", true, true},
		{"/api/v1/health", "api", true, true},
		{"/ws/stream", "stream", false, true},
		{"/metrics", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mux := newTestMux()

			if tt.keyed {
				if rr := do(mux, http.MethodPost, tt.path, ""); rr.Code != http.StatusUnauthorized {
					t.Fatalf("without key: got %d, want 401", rr.Code)
				}
			}

			key := ""
			if tt.keyed {
				key = testKey
			}
			rr := do(mux, http.MethodGet, tt.path, key)
			if rr.Code != http.StatusOK {
				t.Fatalf("first request: got %d, want 200", rr.Code)
			}
			if tt.route != "" && rr.Header().Get("X-Route") != tt.route {
				t.Errorf("route: got %q, want %q", rr.Header().Get("X-Route"), tt.route)
			}

			rr = do(mux, http.MethodGet, tt.path, key)
			if tt.limited && rr.Code != http.StatusTooManyRequests {
				t.Errorf("second request: got %d, want 429", rr.Code)
			}
			if !tt.limited && rr.Code != http.StatusOK {
				t.Errorf("second request: got %d, want 200", rr.Code)
			}
		})
	}
}

func TestNewMux_NoLimiterNoKey(t *testing.T) {
	mux := newMux(routes{
		page:    ok("page"),
		api:     ok("api"),
		stream:  ok("stream"),
		metrics: metrics.New(),
	})
	for i := 0; i < 5; i++ {
		if rr := do(mux, http.MethodPost, "/api/v1/analyze", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, rr.Code)
		}
	}
}
