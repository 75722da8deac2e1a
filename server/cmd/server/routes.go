package main

import (
	"net/http"

	"github.com/moodmate/moodmate/server/internal/metrics"
	"github.com/moodmate/moodmate/server/internal/ratelimit"
)

// routes are the handlers and middleware mounted by newMux.
type routes struct {
	page       http.Handler
	api        http.Handler
	stream     http.Handler
	metrics    *metrics.Metrics
	limiter    *ratelimit.Limiter // nil disables rate limiting
	requireKey func(http.Handler) http.Handler
}

// newMux mounts the server's routes:
//
//	/, /static/          page and assets; public, not limited
//	/analyze, /analyze/  analyze and new steps; public, limited
//	/api/                JSON API; keyed, limited
//	/ws/stream           stats stream; public, upgrade limited
//	/metrics             Prometheus exposition; public, not limited
func newMux(rt routes) *http.ServeMux {
	requireKey := rt.requireKey
	if requireKey == nil {
		requireKey = func(next http.Handler) http.Handler { return next }
	}
	public := rt.limiter.Middleware(rt.metrics.Instrument("/analyze", rt.api))

	mux := http.NewServeMux()
	mux.Handle("/", rt.page)
	mux.Handle("/static/", rt.page)
	mux.Handle("/analyze", public)
	mux.Handle("/analyze/", public)
	mux.Handle("/api/", requireKey(rt.limiter.Middleware(rt.metrics.Instrument("/api", rt.api))))
	mux.Handle("/ws/stream", rt.limiter.Middleware(rt.stream))
	mux.Handle("/metrics", rt.metrics.Handler())
	return mux
}
