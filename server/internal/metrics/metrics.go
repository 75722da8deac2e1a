// Package metrics exposes Prometheus metrics for the moodmate server on
// /metrics. Each Metrics owns its registry so tests can build isolated
// instances.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moodmate/moodmate/pkg/mood"
	"github.com/moodmate/moodmate/server/internal/analysis"
)

const namespace = "moodmate"

// Metrics holds the server's collectors.
type Metrics struct {
	reg *prometheus.Registry

	analyses *prometheus.CounterVec
	errors   *prometheus.CounterVec
	compound prometheus.Histogram
	requests *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed mood analyses by resulting mood.",
		}, []string{"mood"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyze_errors_total",
			Help:      "Rejected or failed analyze requests by reason.",
		}, []string{"reason"}),
		compound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compound_score",
			Help:      "Distribution of VADER compound scores.",
			Buckets:   []float64{-0.75, -0.5, -0.25, -0.05, 0.05, 0.25, 0.5, 0.75, 1},
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	m.reg.MustRegister(
		m.analyses, m.errors, m.compound, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// Pre-create mood series so scrapes show zeroes before the first request.
	for _, md := range mood.All {
		m.analyses.WithLabelValues(string(md))
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveAnalysis implements analysis.Observer.
func (m *Metrics) ObserveAnalysis(r *analysis.Result) {
	m.analyses.WithLabelValues(string(r.Mood)).Inc()
	m.compound.Observe(r.Scores.Compound)
}

// AnalyzeError counts a rejected request. reason is a short stable label
// such as "empty_text" or "bad_json".
func (m *Metrics) AnalyzeError(reason string) {
	m.errors.WithLabelValues(reason).Inc()
}

// Instrument records the latency of next under route.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.requests.WithLabelValues(route, strconv.Itoa(sw.code)).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
