// Package api implements the HTTP JSON API for the moodmate server.
//
// New(opts) returns an http.Handler that serves:
//
//	POST /analyze                      : analyze {"text": "..."}; route of the web client
//	POST /analyze/{id}/steps           : new steps for a recent result; public like /analyze
//	POST /api/v1/analyze               : same as /analyze
//	GET  /api/v1/analyses/{id}         : a recent result; 404 if unknown or expired
//	POST /api/v1/analyses/{id}/steps   : same result with a freshly sampled step list
//	GET  /api/v1/stats                 : mood distribution over recent history
//	GET  /api/v1/health                : liveness, analyzer name, history size
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for the wrong method
//   - Report errors as {"error": "..."}; empty text is 400 with
//     "Please enter some text to analyze!", unexpected failures are 500 with
//     "An error occurred: ..."
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
