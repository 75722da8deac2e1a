// Package store keeps recent analysis results in memory so clients can
// re-sample steps and read the current mood distribution. Nothing is
// persisted; entries expire after the configured TTL.
package store
