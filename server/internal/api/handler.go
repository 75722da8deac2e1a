package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/moodmate/moodmate/pkg/mood"
	"github.com/moodmate/moodmate/server/internal/analysis"
	"github.com/moodmate/moodmate/server/internal/store"
)

// maxBodyBytes bounds the analyze request body.
const maxBodyBytes = 1 << 20

// Messages shown to the user by the web client.
const (
	msgEmptyText  = "Please enter some text to analyze!"
	msgBadJSON    = "Request body must be JSON like {\"text\": \"...\"}"
	msgNotFound   = "analysis not found"
	msgMethod     = "method not allowed"
	msgTooLongFmt = "Text is too long (%s). Please shorten it and try again."
)

// Analyzer is the subset of analysis.Service used by the handler.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*analysis.Result, error)
	Resample(ctx context.Context, id string) (*analysis.Result, error)
	Get(id string) (*analysis.Result, error)
}

// ErrorRecorder counts rejected requests by reason.
type ErrorRecorder interface {
	AnalyzeError(reason string)
}

// Options wires a Handler.
type Options struct {
	Service      Analyzer
	Store        *store.Store
	Errors       ErrorRecorder
	AnalyzerName string
}

// Handler is the HTTP handler for POST /analyze and all /api/v1/* endpoints.
type Handler struct {
	svc     Analyzer
	store   *store.Store
	errs    ErrorRecorder
	name    string
	started time.Time
	mux     *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(opts Options) http.Handler {
	h := &Handler{
		svc:     opts.Service,
		store:   opts.Store,
		errs:    opts.Errors,
		name:    opts.AnalyzerName,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}
	if h.name == "" {
		h.name = "vader"
	}

	h.mux.HandleFunc("/analyze", h.analyze)
	h.mux.HandleFunc("/analyze/", h.steps) // public {id}/steps for the page
	h.mux.HandleFunc("/api/v1/analyze", h.analyze)
	h.mux.HandleFunc("/api/v1/analyses/", h.analyses) // subtree, extracts {id}[/steps]
	h.mux.HandleFunc("/api/v1/stats", h.stats)
	h.mux.HandleFunc("/api/v1/health", h.health)

	return h
}

// ServeHTTP dispatches to the route handlers. A panic in a handler becomes a
// 500 with the same body shape as any other unexpected error.
// A panic after the response has started is only logged.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tw := &trackingWriter{ResponseWriter: w}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("api: handler panic", "path", r.URL.Path, "panic", rec)
			if tw.wrote {
				return
			}
			h.internalErr(tw, fmt.Errorf("%v", rec))
		}
	}()
	h.mux.ServeHTTP(tw, r)
}

// trackingWriter records whether the response has started.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// --- route handlers ---------------------------------------------------------

// analyze handles POST /analyze and POST /api/v1/analyze.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, msgMethod)
		return
	}

	var req AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.reject(w, "body_too_large", http.StatusRequestEntityTooLarge,
				fmt.Sprintf(msgTooLongFmt, "request body over 1 MiB"))
			return
		}
		h.reject(w, "bad_json", http.StatusBadRequest, msgBadJSON)
		return
	}

	res, err := h.svc.Analyze(r.Context(), req.Text)
	if err != nil {
		reason, code, msg := classifyError(err)
		if code == http.StatusInternalServerError {
			h.internalErr(w, err)
			return
		}
		h.reject(w, reason, code, msg)
		return
	}

	slog.Debug("api: analyzed", "id", res.ID, "mood", res.Mood, "compound", res.Scores.Compound)
	jsonResp(w, http.StatusOK, NewAnalyzeResponse(res))
}

// steps handles POST /analyze/{id}/steps, the page's route for new steps.
func (h *Handler) steps(w http.ResponseWriter, r *http.Request) {
	id, sub := splitID(r.URL.Path, "/analyze/")
	if id == "" || sub != "steps" {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, msgMethod)
		return
	}
	res, err := h.svc.Resample(r.Context(), id)
	h.writeResult(w, res, err)
}

// analyses handles GET /api/v1/analyses/{id} and POST /api/v1/analyses/{id}/steps.
func (h *Handler) analyses(w http.ResponseWriter, r *http.Request) {
	id, sub := splitID(r.URL.Path, "/api/v1/analyses/")
	if id == "" {
		jsonErr(w, http.StatusNotFound, msgNotFound)
		return
	}

	var (
		res *analysis.Result
		err error
	)
	switch {
	case sub == "" && r.Method == http.MethodGet:
		res, err = h.svc.Get(id)
	case sub == "steps" && r.Method == http.MethodPost:
		res, err = h.svc.Resample(r.Context(), id)
	case sub == "" || sub == "steps":
		jsonErr(w, http.StatusMethodNotAllowed, msgMethod)
		return
	default:
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}

	h.writeResult(w, res, err)
}

// splitID returns the {id} and optional trailing segment after prefix.
func splitID(path, prefix string) (id, sub string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, sub, _ = strings.Cut(rest, "/")
	return id, sub
}

func (h *Handler) writeResult(w http.ResponseWriter, res *analysis.Result, err error) {
	switch {
	case err == nil:
		jsonResp(w, http.StatusOK, NewAnalyzeResponse(res))
	case errors.Is(err, analysis.ErrNotFound):
		jsonErr(w, http.StatusNotFound, msgNotFound)
	default:
		h.internalErr(w, err)
	}
}

// stats returns GET /api/v1/stats: mood distribution over recent history.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, msgMethod)
		return
	}
	jsonResp(w, http.StatusOK, h.store.Stats())
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, msgMethod)
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Analyzer:      h.name,
		History:       len(h.store.List()),
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) reject(w http.ResponseWriter, reason string, code int, msg string) {
	if h.errs != nil {
		h.errs.AnalyzeError(reason)
	}
	jsonErr(w, code, msg)
}

// classifyError maps an analysis error to a metrics reason, an HTTP status
// and the message shown to the user.
func classifyError(err error) (reason string, code int, msg string) {
	switch {
	case errors.Is(err, analysis.ErrEmptyText):
		return "empty_text", http.StatusBadRequest, msgEmptyText
	case errors.Is(err, analysis.ErrTextTooLong):
		detail := "limit exceeded"
		var le *analysis.LengthError
		if errors.As(err, &le) {
			detail = fmt.Sprintf("%d of %d characters", le.Got, le.Limit)
		}
		return "text_too_long", http.StatusBadRequest, fmt.Sprintf(msgTooLongFmt, detail)
	case errors.Is(err, analysis.ErrNotFound):
		return "not_found", http.StatusNotFound, msgNotFound
	default:
		return "internal", http.StatusInternalServerError, "An error occurred: " + err.Error()
	}
}

// UserError returns the message the web client shows for err, the same text
// the HTTP routes put in their error body.
func UserError(err error) string {
	_, _, msg := classifyError(err)
	return msg
}

// StreamAnalyzer adapts svc for the stats stream: results are encoded as
// AnalyzeResponse and errors carry the user-facing message. rec may be nil.
func StreamAnalyzer(svc Analyzer, rec ErrorRecorder) func(ctx context.Context, text string) (any, error) {
	return func(ctx context.Context, text string) (any, error) {
		res, err := svc.Analyze(ctx, text)
		if err != nil {
			reason, _, msg := classifyError(err)
			if rec != nil {
				rec.AnalyzeError(reason)
			}
			return nil, errors.New(msg)
		}
		return NewAnalyzeResponse(res), nil
	}
}

func (h *Handler) internalErr(w http.ResponseWriter, err error) {
	slog.Error("api: request failed", "err", err)
	if h.errs != nil {
		h.errs.AnalyzeError("internal")
	}
	jsonErr(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// NewAnalyzeResponse maps a result to its JSON representation. The stats
// stream reuses it for analyses requested over the socket.
func NewAnalyzeResponse(r *analysis.Result) AnalyzeResponse {
	steps := r.Steps
	if steps == nil {
		steps = []string{}
	}
	return AnalyzeResponse{
		Success:           true,
		ID:                r.ID,
		Mood:              string(r.Mood),
		MoodClass:         r.Mood.CSSClass(),
		Emoji:             r.Emoji,
		EnhancementHeader: r.Header,
		EnhancementSteps:  steps,
		Confidence:        mood.Round2(r.Confidence),
		Scores:            r.Scores,
		Text:              r.Text,
		CreatedAt:         r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
