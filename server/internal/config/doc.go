// Package config loads the moodmate server configuration from the `server:`
// section of config.yaml.
//
// Config fields:
//   - Host, HTTPPort             : listener address (default 127.0.0.1:5000)
//   - LogLevel                   : debug | info | warn | error (default info)
//   - Auth.Mode                  : "apikey" or "none"; guards /api/ routes only
//   - Auth.KeyEnv                : environment variable holding the expected API key
//   - Auth.Header                : HTTP header name (default "x-api-key")
//   - History.TTL                : how long results stay available (default 30m)
//   - RateLimit.{Enabled,RPS,Burst} : per-IP token bucket (default on, 5 rps, burst 20)
//   - Analysis.MaxTextLength     : input limit in characters (default 5000)
//   - Suggestions.{File,Watch}   : optional YAML step catalog and hot reload
//   - Stream.Interval            : WebSocket stats broadcast period (default 5s)
//
// Load(path) applies defaults before unmarshalling, then validates. An empty
// path yields the defaults.
package config
