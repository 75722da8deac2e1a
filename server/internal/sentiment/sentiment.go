package sentiment

import "github.com/jonreiter/govader"

// Scores holds the VADER polarity scores for one piece of text.
// Negative, Neutral and Positive are proportions that sum to ~1;
// Compound is the normalised overall score in the range -1..1.
type Scores struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Analyzer scores free text.
type Analyzer interface {
	PolarityScores(text string) Scores
}

// Func adapts a plain function to the Analyzer interface.
type Func func(text string) Scores

// PolarityScores calls f(text).
func (f Func) PolarityScores(text string) Scores { return f(text) }

// VADER is an Analyzer backed by govader's port of the NLTK VADER lexicon.
// The lexicon is read-only after construction, so one VADER may be shared
// across request goroutines.
type VADER struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVADER loads the bundled lexicon and returns a ready analyzer.
func NewVADER() *VADER {
	return &VADER{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Name identifies the model in health output.
func (v *VADER) Name() string { return "vader" }

// PolarityScores returns the VADER scores for text.
func (v *VADER) PolarityScores(text string) Scores {
	s := v.sia.PolarityScores(text)
	return Scores{
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Positive: s.Positive,
		Compound: s.Compound,
	}
}
