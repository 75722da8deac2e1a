// Package suggest holds the "mood enhancement" step tables and draws random
// recommendations from them.
//
// Default() returns the built-in catalog. LoadFile(path) reads a YAML catalog
// of the same shape; moods absent from the file keep their built-in table:
//
//	positive:
//	  header: "✨ Great vibes!"
//	  steps:
//	    - "Call a friend"
//	negative: ...
//	neutral: ...
//
// Step counts per recommendation:
//   - Positive, Neutral : 3
//   - Negative          : 4 when confidence > 0.5, otherwise 3
//
// Counts are clamped to the table size and steps are drawn without
// replacement. Provider holds the live catalog; Watch swaps it when the file
// changes and keeps the previous one when the new file does not load.
package suggest
