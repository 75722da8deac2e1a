// Package selfcheck verifies a moodmate installation: the config and step
// catalog load, the embedded page is well formed, and a running server
// answers health checks and exposes its metrics.
//
// Every check returns a Result; a Report collects them and renders the
// ✅/❌ lines printed by the moodmate-check command.
package selfcheck
