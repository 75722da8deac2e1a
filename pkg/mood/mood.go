package mood

import (
	"fmt"
	"math"
	"strings"
)

// Mood is one of the three sentiment buckets.
type Mood string

// Mood constants. The string values are the labels returned to clients.
const (
	Positive Mood = "Positive"
	Negative Mood = "Negative"
	Neutral  Mood = "Neutral"
)

// Thresholds that map a compound score to a mood. Both bounds are inclusive
// on the Positive/Negative side.
const (
	ThresholdPositive = 0.05
	ThresholdNegative = -0.05
)

// All lists the moods in display order.
var All = []Mood{Positive, Neutral, Negative}

// Classification is the result of bucketing a compound score.
type Classification struct {
	Mood  Mood
	Emoji string

	// Compound is the raw score in the range -1..1.
	Compound float64

	// Confidence is |Compound|, range 0–1.
	Confidence float64
}

// Classify buckets a compound score.
func Classify(compound float64) Classification {
	m := FromScore(compound)
	return Classification{
		Mood:       m,
		Emoji:      m.Emoji(),
		Compound:   compound,
		Confidence: math.Abs(compound),
	}
}

// FromScore returns the mood for a compound score.
func FromScore(compound float64) Mood {
	switch {
	case compound >= ThresholdPositive:
		return Positive
	case compound <= ThresholdNegative:
		return Negative
	default:
		return Neutral
	}
}

// Emoji returns the face shown next to the mood label.
func (m Mood) Emoji() string {
	switch m {
	case Positive:
		return "🙂"
	case Negative:
		return "🙁"
	default:
		return "😐"
	}
}

// CSSClass returns the lowercase form the web UI uses for card styling.
func (m Mood) CSSClass() string {
	return strings.ToLower(string(m))
}

// Valid reports whether m is one of the three known moods.
func (m Mood) Valid() bool {
	switch m {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// Parse accepts a mood label in any letter case.
func Parse(s string) (Mood, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return Positive, nil
	case "negative":
		return Negative, nil
	case "neutral":
		return Neutral, nil
	}
	return "", fmt.Errorf("mood: unknown label %q: want positive|negative|neutral", s)
}

// Round2 rounds v to two decimal places, the precision returned to clients.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
