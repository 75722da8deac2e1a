// Package auth provides API key middleware for the moodmate REST API.
//
// APIKey(mode, header, key) wraps an http.Handler and validates the value of
// the named request header. When mode != "apikey" or key == "", all requests
// pass through (local development with auth disabled). A missing or wrong
// key gets 401 with a JSON error body.
package auth
