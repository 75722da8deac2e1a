package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/moodmate/moodmate/pkg/mood"
	"github.com/moodmate/moodmate/server/internal/sentiment"
	"github.com/moodmate/moodmate/server/internal/suggest"
)

// Errors returned by Service. The HTTP layer maps them to status codes.
var (
	ErrEmptyText   = errors.New("text is empty")
	ErrTextTooLong = errors.New("text is too long")
	ErrNotFound    = errors.New("analysis not found")
)

// LengthError reports input over the configured limit. It matches
// ErrTextTooLong with errors.Is.
type LengthError struct {
	Limit int
	Got   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: %d characters, limit is %d", ErrTextTooLong, e.Got, e.Limit)
}

// Is reports whether target is ErrTextTooLong.
func (e *LengthError) Is(target error) bool { return target == ErrTextTooLong }

// Result is one completed analysis.
type Result struct {
	ID     string
	Text   string
	Mood   mood.Mood
	Emoji  string
	Header string
	Steps  []string

	// Confidence is |compound|, unrounded.
	Confidence float64
	Scores     sentiment.Scores
	CreatedAt  time.Time
}

// History keeps recent results for re-sampling.
type History interface {
	Put(r *Result)
	Get(id string) (*Result, bool)
}

// Observer is notified about every finished analysis. Used for metrics.
type Observer interface {
	ObserveAnalysis(r *Result)
}

// Options configures a Service.
type Options struct {
	Analyzer      sentiment.Analyzer
	Catalog       *suggest.Provider
	Sampler       *suggest.Sampler
	History       History
	Observer      Observer
	MaxTextLength int

	// Now is injectable for deterministic tests.
	Now func() time.Time
}

// Service is the analysis pipeline. It is safe for concurrent use.
type Service struct {
	analyzer sentiment.Analyzer
	catalog  *suggest.Provider
	sampler  *suggest.Sampler
	history  History
	observer Observer
	maxLen   int
	now      func() time.Time
}

// New builds a Service. Analyzer is required; the other options default to
// the built-in catalog, a runtime-seeded sampler and no history.
func New(opts Options) (*Service, error) {
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("analysis: analyzer is required")
	}
	s := &Service{
		analyzer: opts.Analyzer,
		catalog:  opts.Catalog,
		sampler:  opts.Sampler,
		history:  opts.History,
		observer: opts.Observer,
		maxLen:   opts.MaxTextLength,
		now:      opts.Now,
	}
	if s.catalog == nil {
		s.catalog = suggest.NewProvider(nil)
	}
	if s.sampler == nil {
		s.sampler = suggest.NewSampler(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Analyze scores text and returns a new Result. Leading and trailing
// whitespace is trimmed first; the trimmed text is what the Result echoes.
func (s *Service) Analyze(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); s.maxLen > 0 && n > s.maxLen {
		return nil, &LengthError{Limit: s.maxLen, Got: n}
	}

	scores := s.analyzer.PolarityScores(text)
	c := mood.Classify(scores.Compound)
	rec := s.sampler.Recommend(s.catalog.Catalog(), c.Mood, c.Confidence)

	r := &Result{
		ID:         uuid.NewString(),
		Text:       text,
		Mood:       c.Mood,
		Emoji:      c.Emoji,
		Header:     rec.Header,
		Steps:      rec.Steps,
		Confidence: c.Confidence,
		Scores:     scores,
		CreatedAt:  s.now().UTC(),
	}

	if s.history != nil {
		s.history.Put(r)
	}
	if s.observer != nil {
		s.observer.ObserveAnalysis(r)
	}
	return r, nil
}

// Resample returns a copy of the stored result id with a freshly drawn set
// of steps. The stored result is left unchanged.
func (s *Service) Resample(ctx context.Context, id string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, ErrNotFound
	}
	prev, ok := s.history.Get(id)
	if !ok {
		return nil, ErrNotFound
	}

	rec := s.sampler.Recommend(s.catalog.Catalog(), prev.Mood, prev.Confidence)
	r := *prev
	r.Header = rec.Header
	r.Steps = rec.Steps
	return &r, nil
}

// Get returns the stored result id.
func (s *Service) Get(id string) (*Result, error) {
	if s.history == nil {
		return nil, ErrNotFound
	}
	r, ok := s.history.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}
