package suggest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moodmate/moodmate/pkg/mood"
)

// Table is the header and step pool for one mood.
type Table struct {
	Header string   `yaml:"header" json:"header"`
	Steps  []string `yaml:"steps" json:"steps"`
}

// Catalog groups the tables for all three moods.
type Catalog struct {
	Positive Table `yaml:"positive" json:"positive"`
	Negative Table `yaml:"negative" json:"negative"`
	Neutral  Table `yaml:"neutral" json:"neutral"`
}

// Table returns the table for m. Unknown moods get the neutral table.
func (c *Catalog) Table(m mood.Mood) Table {
	switch m {
	case mood.Positive:
		return c.Positive
	case mood.Negative:
		return c.Negative
	default:
		return c.Neutral
	}
}

// Default returns a fresh copy of the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Positive: Table{
			Header: "✨ Great vibes! Here's how to amplify your positive mood:",
			Steps: []string{
				"🌟 Share your positive energy - call a friend or family member to brighten their day",
				"📝 Write down 3 things you're grateful for today to amplify your good mood",
				"🎵 Create a playlist of your favorite upbeat songs to maintain this energy",
				"🏃‍♀️ Go for a 10-minute walk outside to boost endorphins naturally",
				"🎨 Channel this positive energy into a creative activity like drawing or writing",
				"🤝 Do a small act of kindness - compliment someone or help a neighbor",
				"📚 Learn something new for 15 minutes to keep your mind engaged positively",
				"🧘‍♀️ Practice 5 minutes of gratitude meditation to solidify this good feeling",
			},
		},
		Negative: Table{
			Header: "💙 It's okay to feel down. Here are gentle steps to help you feel better:",
			Steps: []string{
				"🫁 Take 5 deep breaths: inhale for 4 counts, hold for 4, exhale for 6",
				"💧 Drink a full glass of water - dehydration can worsen mood",
				"🚶‍♀️ Take a 5-minute walk, even if it's just around your room",
				"📱 Reach out to one supportive person - text or call someone who cares about you",
				"🎵 Listen to one song that usually makes you feel better",
				"✍️ Write down what's bothering you for 3 minutes, then tear up the paper",
				"🛁 Take a warm shower or splash cold water on your face",
				"🍎 Eat something nutritious - low blood sugar can affect mood",
				"😴 If tired, take a 20-minute power nap to reset your energy",
				"🌱 Step outside for 2 minutes and get some natural light",
			},
		},
		Neutral: Table{
			Header: "⚖️ You're in a balanced state. Here's how to add some positive momentum:",
			Steps: []string{
				"🎯 Set one small, achievable goal for the next hour",
				"🧹 Organize your immediate space - clean your desk or make your bed",
				"📞 Connect with someone - send a text to check in on a friend",
				"🌿 Do 5 minutes of light stretching or yoga poses",
				"📖 Read something interesting for 10 minutes - news, article, or book",
				"🎨 Engage in a creative activity for 15 minutes - doodle, write, or craft",
				"🍵 Make yourself a warm beverage and savor it mindfully",
				"🎵 Listen to music that matches your current energy level",
				"📝 Plan one thing you're looking forward to this week",
				"🌅 Look out a window and observe nature or surroundings for 2 minutes",
			},
		},
	}
}

// ErrEmptyTable is returned when a catalog file defines a mood with no steps.
var ErrEmptyTable = errors.New("table has no steps")

// LoadFile reads a YAML catalog from path. Moods missing from the file keep
// the built-in table.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suggest: read %q: %w", path, err)
	}

	var raw struct {
		Positive *Table `yaml:"positive"`
		Negative *Table `yaml:"negative"`
		Neutral  *Table `yaml:"neutral"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("suggest: parse yaml: %w", err)
	}

	cat := Default()
	for _, m := range []struct {
		name string
		src  *Table
		dst  *Table
	}{
		{"positive", raw.Positive, &cat.Positive},
		{"negative", raw.Negative, &cat.Negative},
		{"neutral", raw.Neutral, &cat.Neutral},
	} {
		if m.src == nil {
			continue
		}
		if len(m.src.Steps) == 0 {
			return nil, fmt.Errorf("suggest: %s: %w", m.name, ErrEmptyTable)
		}
		if m.src.Header == "" {
			m.src.Header = m.dst.Header
		}
		*m.dst = *m.src
	}
	return cat, nil
}
