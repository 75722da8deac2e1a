// Package ws implements the WebSocket stream for the moodmate server,
// mounted at /ws/stream.
//
// New(src, interval, analyze) creates a Hub. Hub.Run(ctx) broadcasts the
// current mood stats every interval until ctx is cancelled, then closes all
// connections. Hub.ServeHTTP upgrades a connection, sends the stats at once
// and then streams updates.
//
// Server → client:
//
//	{"event": "stats",    "data": { /* GET /api/v1/stats */ }, "generated_at": "..."}
//	{"event": "analysis", "data": { /* POST /analyze body */ }, "generated_at": "..."}
//	{"event": "error",    "error": "...", "generated_at": "..."}
//
// Client → server:
//
//	{"type": "analyze", "text": "..."}
//
// The upgrader accepts all origins.
package ws
