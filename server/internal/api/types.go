package api

import "github.com/moodmate/moodmate/server/internal/sentiment"

// AnalyzeRequest is the body for POST /analyze and POST /api/v1/analyze.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// AnalyzeResponse is the payload for a successful analysis or re-sample.
// Field names are the ones the page script reads.
type AnalyzeResponse struct {
	Success           bool             `json:"success"`
	ID                string           `json:"id"`
	Mood              string           `json:"mood"`
	MoodClass         string           `json:"mood_class"`
	Emoji             string           `json:"emoji"`
	EnhancementHeader string           `json:"enhancement_header"`
	EnhancementSteps  []string         `json:"enhancement_steps"`
	Confidence        float64          `json:"confidence"` // rounded to 2 dp
	Scores            sentiment.Scores `json:"scores"`
	Text              string           `json:"text"`
	CreatedAt         string           `json:"created_at"` // RFC3339
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Analyzer      string  `json:"analyzer"`
	History       int     `json:"history"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
