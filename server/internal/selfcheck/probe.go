package selfcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const defaultProbeTimeout = 10 * time.Second

// metricAnalyses must be present on a healthy server's /metrics.
const metricAnalyses = "moodmate_analyses_total"

// Prober checks a running server.
type Prober struct {
	BaseURL string
	Client  *http.Client

	// APIKey and Header authenticate /api/ calls when the server requires it.
	APIKey string
	Header string
}

// NewProber returns a Prober for baseURL with a default timeout.
func NewProber(baseURL string) *Prober {
	return &Prober{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: defaultProbeTimeout},
		Header:  "x-api-key",
	}
}

// Run performs the health and metrics checks and, if sample is non-empty,
// analyzes it.
func (p *Prober) Run(ctx context.Context, sample string) []Result {
	out := []Result{p.health(ctx), p.metrics(ctx)}
	if sample != "" {
		out = append(out, p.analyze(ctx, sample))
	}
	return out
}

func (p *Prober) health(ctx context.Context) Result {
	const name = "server health"
	var body struct {
		Status   string `json:"status"`
		Analyzer string `json:"analyzer"`
		History  int    `json:"history"`
	}
	if err := p.getJSON(ctx, "/api/v1/health", &body); err != nil {
		return fail(name, err)
	}
	if body.Status != "ok" {
		return fail(name, fmt.Errorf("status %q", body.Status))
	}
	return pass(name, fmt.Sprintf("%s, analyzer %s, %d recent", p.BaseURL, body.Analyzer, body.History))
}

func (p *Prober) metrics(ctx context.Context) Result {
	const name = "server metrics"
	mfs, err := p.fetchMetrics(ctx)
	if err != nil {
		return fail(name, err)
	}
	mf, ok := mfs[metricAnalyses]
	if !ok {
		return fail(name, fmt.Errorf("%s not exposed", metricAnalyses))
	}
	return pass(name, fmt.Sprintf("%d families, %.0f analyses served", len(mfs), sumFamily(mf)))
}

func (p *Prober) analyze(ctx context.Context, text string) Result {
	const name = "sample analysis"
	payload, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return fail(name, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	var body struct {
		Success bool     `json:"success"`
		Mood    string   `json:"mood"`
		Steps   []string `json:"enhancement_steps"`
		Error   string   `json:"error"`
	}
	if err := p.do(req, &body); err != nil {
		return fail(name, err)
	}
	if !body.Success {
		return fail(name, fmt.Errorf("server error: %s", body.Error))
	}
	return pass(name, fmt.Sprintf("%s with %d steps", body.Mood, len(body.Steps)))
}

func (p *Prober) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return p.do(req, v)
}

func (p *Prober) do(req *http.Request, v interface{}) error {
	if p.APIKey != "" {
		req.Header.Set(p.Header, p.APIKey)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("http %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// fetchMetrics GETs /metrics and returns the parsed metric families.
func (p *Prober) fetchMetrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition. A partial result with a
// parse warning still counts as success.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge or untyped values in mf.
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
