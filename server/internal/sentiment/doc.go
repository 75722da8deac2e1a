// Package sentiment wraps the lexicon-based VADER analyzer behind a small
// interface so the rest of the server can be tested with fixed scores.
package sentiment
