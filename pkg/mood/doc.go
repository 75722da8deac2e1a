// Package mood maps a VADER compound sentiment score to one of three mood
// buckets shared by the server, its HTTP API and the setup checker.
//
// Thresholds:
//   - compound >= 0.05  → Positive 🙂
//   - compound <= -0.05 → Negative 🙁
//   - otherwise         → Neutral 😐
//
// Confidence is the absolute value of the compound score, range 0–1.
package mood
