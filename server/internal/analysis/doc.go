// Package analysis runs one mood analysis: validate the text, score it with
// the sentiment analyzer, bucket the compound score and draw enhancement
// steps from the active catalog.
//
// Results are handed to a History so a client can ask for a fresh set of
// steps for the same text without re-posting it (Resample).
package analysis
