package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moodmate/moodmate/pkg/mood"
	"github.com/moodmate/moodmate/server/internal/analysis"
)

// Entry is a result together with the time it was stored.
type Entry struct {
	Result    *analysis.Result
	UpdatedAt time.Time
}

// Stats summarises the live entries.
type Stats struct {
	Total          int               `json:"total"`
	Counts         map[mood.Mood]int `json:"counts"`
	AvgConfidence  float64           `json:"avg_confidence"`
	AvgCompound    float64           `json:"avg_compound"`
	WindowSeconds  float64           `json:"window_seconds"`
	LastAnalysisAt string            `json:"last_analysis_at,omitempty"` // RFC3339
}

// Store is a thread-safe in-memory result store keyed by result ID.
// A background goroutine (Run) periodically evicts entries older than the
// configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the retention window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores or replaces the result for r.ID.
// Callers must not modify r after calling Put.
func (s *Store) Put(r *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[r.ID] = &Entry{
		Result:    r,
		UpdatedAt: s.now(),
	}
}

// Get returns the result for id. Entries older than the TTL that have not
// been evicted yet are reported as missing.
func (s *Store) Get(id string) (*analysis.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok || !e.UpdatedAt.After(s.now().Add(-s.ttl)) {
		return nil, false
	}
	return e.Result, true
}

// List returns all entries whose UpdatedAt is within the TTL.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Stats computes the mood distribution over live entries. Counts always
// carries all three moods so clients can render zeroes.
func (s *Store) Stats() Stats {
	st := Stats{
		Counts:        map[mood.Mood]int{mood.Positive: 0, mood.Neutral: 0, mood.Negative: 0},
		WindowSeconds: s.ttl.Seconds(),
	}
	entries := s.List()
	if len(entries) == 0 {
		return st
	}

	var conf, comp float64
	var last time.Time
	for _, e := range entries {
		st.Counts[e.Result.Mood]++
		conf += e.Result.Confidence
		comp += e.Result.Scores.Compound
		if e.UpdatedAt.After(last) {
			last = e.UpdatedAt
		}
	}
	st.Total = len(entries)
	st.AvgConfidence = mood.Round2(conf / float64(st.Total))
	st.AvgCompound = mood.Round2(comp / float64(st.Total))
	st.LastAnalysisAt = last.UTC().Format(time.RFC3339)
	return st
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted expired results", "count", n)
			}
		}
	}
}
