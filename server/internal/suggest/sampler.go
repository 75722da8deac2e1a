package suggest

import (
	"math/rand/v2"
	"sync"

	"github.com/moodmate/moodmate/pkg/mood"
)

// Step counts per mood.
const (
	DefaultCount       = 3
	NegativeCount      = 4
	NegativeConfidence = 0.5
)

// Recommendation is the header plus the sampled steps for one analysis.
type Recommendation struct {
	Header string   `json:"header"`
	Steps  []string `json:"steps"`
}

// Count returns how many steps to draw for a mood at the given confidence.
// The result is not clamped to any table size.
func Count(m mood.Mood, confidence float64) int {
	if m == mood.Negative && confidence > NegativeConfidence {
		return NegativeCount
	}
	return DefaultCount
}

// Sampler draws items without replacement. The zero value is not usable;
// build one with NewSampler.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a Sampler over src. A nil src seeds from the runtime.
func NewSampler(src rand.Source) *Sampler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Sampler{rng: rand.New(src)}
}

// Sample returns min(k, len(items)) distinct items in random order.
// items is not modified.
func (s *Sampler) Sample(items []string, k int) []string {
	if k > len(items) {
		k = len(items)
	}
	if k <= 0 {
		return []string{}
	}

	pool := make([]string, len(items))
	copy(pool, items)

	s.mu.Lock()
	// Partial Fisher–Yates: only the first k positions are settled.
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	s.mu.Unlock()

	return pool[:k]
}

// Recommend draws a recommendation for mood m from cat.
func (s *Sampler) Recommend(cat *Catalog, m mood.Mood, confidence float64) Recommendation {
	tbl := cat.Table(m)
	return Recommendation{
		Header: tbl.Header,
		Steps:  s.Sample(tbl.Steps, Count(m, confidence)),
	}
}
