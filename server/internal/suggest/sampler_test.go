package suggest

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moodmate/moodmate/pkg/mood"
)

func seeded() *Sampler { return NewSampler(rand.NewPCG(1, 2)) }

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count(mood.Positive, 0.99))
	assert.Equal(t, 3, Count(mood.Neutral, 0.01))
	assert.Equal(t, 3, Count(mood.Negative, 0.5), "0.5 is not above the threshold")
	assert.Equal(t, 4, Count(mood.Negative, 0.51))
}

func TestSample_DistinctAndFromPool(t *testing.T) {
	s := seeded()
	items := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 100; i++ {
		got := s.Sample(items, 3)
		assert.Len(t, got, 3)
		seen := map[string]bool{}
		for _, g := range got {
			assert.Contains(t, items, g)
			assert.False(t, seen[g], "duplicate %q in %v", g, got)
			seen[g] = true
		}
	}
}

func TestSample_ClampsToPool(t *testing.T) {
	s := seeded()
	got := s.Sample([]string{"x", "y"}, 4)
	assert.ElementsMatch(t, []string{"x", "y"}, got)
}

func TestSample_EmptyAndZero(t *testing.T) {
	s := seeded()
	assert.Empty(t, s.Sample(nil, 3))
	assert.Empty(t, s.Sample([]string{"a"}, 0))
	assert.NotNil(t, s.Sample(nil, 3), "empty slice, not nil, so JSON encodes []")
}

func TestSample_DoesNotMutateInput(t *testing.T) {
	s := seeded()
	items := []string{"a", "b", "c", "d"}
	s.Sample(items, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
}

func TestSample_Deterministic(t *testing.T) {
	items := Default().Neutral.Steps
	assert.Equal(t, seeded().Sample(items, 3), seeded().Sample(items, 3))
}

func TestSample_CoversPool(t *testing.T) {
	s := NewSampler(nil)
	items := []string{"a", "b", "c", "d", "e", "f"}
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		for _, g := range s.Sample(items, 2) {
			seen[g] = true
		}
	}
	assert.Len(t, seen, len(items))
}

func TestRecommend(t *testing.T) {
	s := seeded()
	cat := Default()

	r := s.Recommend(cat, mood.Negative, 0.8)
	assert.Equal(t, cat.Negative.Header, r.Header)
	assert.Len(t, r.Steps, 4)
	for _, step := range r.Steps {
		assert.Contains(t, cat.Negative.Steps, step)
	}

	r = s.Recommend(cat, mood.Positive, 0.9)
	assert.Equal(t, cat.Positive.Header, r.Header)
	assert.Len(t, r.Steps, 3)
}
