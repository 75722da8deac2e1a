package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKey returns middleware that enforces API key authentication.
//
// Behaviour:
//   - If mode != "apikey" or key == "", requests are passed through.
//   - Otherwise the value of header is compared to key in constant time.
//   - A missing, empty or incorrect key returns 401.
func APIKey(mode, header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if mode != "apikey" || key == "" {
			return next
		}
		want := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" {
				unauthorized(w, "missing api key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				unauthorized(w, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
