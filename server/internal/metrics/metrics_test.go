package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodmate/moodmate/pkg/mood"
	"github.com/moodmate/moodmate/server/internal/analysis"
	"github.com/moodmate/moodmate/server/internal/sentiment"
)

func TestObserveAnalysis(t *testing.T) {
	m := New()
	m.ObserveAnalysis(&analysis.Result{Mood: mood.Positive, Scores: sentiment.Scores{Compound: 0.7}})
	m.ObserveAnalysis(&analysis.Result{Mood: mood.Positive, Scores: sentiment.Scores{Compound: 0.2}})
	m.ObserveAnalysis(&analysis.Result{Mood: mood.Negative, Scores: sentiment.Scores{Compound: -0.4}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("Positive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("Negative")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.analyses.WithLabelValues("Neutral")))
}

func TestAnalyzeError(t *testing.T) {
	m := New()
	m.AnalyzeError("empty_text")
	m.AnalyzeError("empty_text")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.errors.WithLabelValues("empty_text")))
}

func TestInstrument_RecordsStatus(t *testing.T) {
	m := New()
	h := m.Instrument("analyze", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/analyze", nil))

	assert.Equal(t, 1, testutil.CollectAndCount(m.requests, "moodmate_http_request_duration_seconds"))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveAnalysis(&analysis.Result{Mood: mood.Neutral})

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `moodmate_analyses_total{mood="Neutral"} 1`), body)
	assert.Contains(t, body, `moodmate_analyses_total{mood="Positive"} 0`)
	assert.Contains(t, body, "moodmate_compound_score_bucket")
}
