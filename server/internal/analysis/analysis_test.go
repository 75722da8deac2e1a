package analysis

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/moodmate/moodmate/pkg/mood"
	"github.com/moodmate/moodmate/server/internal/sentiment"
	"github.com/moodmate/moodmate/server/internal/suggest"
)

// memHistory is a minimal History for tests.
type memHistory struct {
	mu sync.Mutex
	m  map[string]*Result
}

func (h *memHistory) Put(r *Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.m == nil {
		h.m = map[string]*Result{}
	}
	h.m[r.ID] = r
}

func (h *memHistory) Get(id string) (*Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.m[id]
	return r, ok
}

type countObserver struct{ n int }

func (o *countObserver) ObserveAnalysis(*Result) { o.n++ }

func fixed(compound float64) sentiment.Analyzer {
	return sentiment.Func(func(string) sentiment.Scores {
		return sentiment.Scores{Compound: compound, Neutral: 1 - compound*compound}
	})
}

func newService(t *testing.T, compound float64, h History) *Service {
	t.Helper()
	s, err := New(Options{
		Analyzer:      fixed(compound),
		Sampler:       suggest.NewSampler(rand.NewPCG(7, 7)),
		History:       h,
		MaxTextLength: 20,
		Now:           func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_RequiresAnalyzer(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without analyzer")
	}
}

func TestAnalyze_Positive(t *testing.T) {
	s := newService(t, 0.8, nil)
	r, err := s.Analyze(context.Background(), "  great day  ")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.Mood != mood.Positive || r.Emoji != "🙂" {
		t.Errorf("mood: got %s %s, want Positive 🙂", r.Mood, r.Emoji)
	}
	if r.Text != "great day" {
		t.Errorf("Text: got %q, want trimmed", r.Text)
	}
	if r.Header != suggest.Default().Positive.Header {
		t.Errorf("Header: got %q", r.Header)
	}
	if len(r.Steps) != 3 {
		t.Errorf("Steps: got %d, want 3", len(r.Steps))
	}
	if r.Confidence != 0.8 {
		t.Errorf("Confidence: got %v, want 0.8", r.Confidence)
	}
	if r.ID == "" {
		t.Error("ID: empty")
	}
	if !r.CreatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("CreatedAt: got %v", r.CreatedAt)
	}
}

func TestAnalyze_NegativeStepCount(t *testing.T) {
	strong, err := newService(t, -0.9, nil).Analyze(context.Background(), "awful")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if strong.Mood != mood.Negative || len(strong.Steps) != 4 {
		t.Errorf("strong negative: got %s with %d steps, want Negative/4", strong.Mood, len(strong.Steps))
	}

	mild, err := newService(t, -0.3, nil).Analyze(context.Background(), "meh, bad")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(mild.Steps) != 3 {
		t.Errorf("mild negative: got %d steps, want 3", len(mild.Steps))
	}
}

func TestAnalyze_Neutral(t *testing.T) {
	r, err := newService(t, 0.01, nil).Analyze(context.Background(), "the sky")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.Mood != mood.Neutral || r.Emoji != "😐" {
		t.Errorf("got %s %s, want Neutral 😐", r.Mood, r.Emoji)
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	s := newService(t, 0.5, nil)
	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := s.Analyze(context.Background(), in); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Analyze(%q): got %v, want ErrEmptyText", in, err)
		}
	}
}

func TestAnalyze_TooLong(t *testing.T) {
	s := newService(t, 0.5, nil)
	_, err := s.Analyze(context.Background(), strings.Repeat("a", 21))
	if !errors.Is(err, ErrTextTooLong) {
		t.Errorf("got %v, want ErrTextTooLong", err)
	}
	var le *LengthError
	if !errors.As(err, &le) || le.Got != 21 || le.Limit != 20 {
		t.Errorf("LengthError: got %+v", le)
	}
	// Limit counts characters, not bytes.
	if _, err := s.Analyze(context.Background(), strings.Repeat("é", 20)); err != nil {
		t.Errorf("20 runes: unexpected error %v", err)
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newService(t, 0.5, nil).Analyze(ctx, "hi"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestAnalyze_RecordsHistoryAndObserver(t *testing.T) {
	h := &memHistory{}
	obs := &countObserver{}
	s, err := New(Options{Analyzer: fixed(0.4), History: h, Observer: obs})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r, err := s.Analyze(context.Background(), "fine")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	got, err := s.Get(r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != r {
		t.Error("Get returned a different result")
	}
	if obs.n != 1 {
		t.Errorf("observer calls: got %d, want 1", obs.n)
	}
}

func TestResample_KeepsMoodAndText(t *testing.T) {
	h := &memHistory{}
	s := newService(t, -0.7, h)
	first, err := s.Analyze(context.Background(), "so sad")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	again, err := s.Resample(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}

	ignore := cmpopts.IgnoreFields(Result{}, "Steps")
	if diff := cmp.Diff(first, again, ignore); diff != "" {
		t.Errorf("Resample changed more than steps (-first +again):\n%s", diff)
	}
	if len(again.Steps) != 4 {
		t.Errorf("Steps: got %d, want 4", len(again.Steps))
	}
	stored, _ := h.Get(first.ID)
	if diff := cmp.Diff(first.Steps, stored.Steps); diff != "" {
		t.Errorf("stored steps mutated:\n%s", diff)
	}
}

func TestResample_NotFound(t *testing.T) {
	if _, err := newService(t, 0.5, &memHistory{}).Resample(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, err := newService(t, 0.5, nil).Resample(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("nil history: got %v, want ErrNotFound", err)
	}
	if _, err := newService(t, 0.5, nil).Get("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get nil history: got %v, want ErrNotFound", err)
	}
}
