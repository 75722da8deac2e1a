package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moodmate/moodmate/server/internal/ratelimit"
	"github.com/moodmate/moodmate/server/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxInboundBytes bounds one client frame; analyze requests carry text.
	maxInboundBytes = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; restrict at the reverse proxy if needed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatsSource provides the payload broadcast to clients.
type StatsSource interface {
	Stats() store.Stats
}

// AnalyzeFunc answers an inbound analyze request. The returned value is sent
// back as the message data; a non-nil error is sent as an "error" event.
type AnalyzeFunc func(ctx context.Context, text string) (any, error)

// FrameLimiter throttles inbound analyze frames per client key.
type FrameLimiter interface {
	Allow(key string, now time.Time) bool
}

// msgSlowDown is the error event sent for a throttled frame.
const msgSlowDown = "Too many requests, please slow down."

// Message is the JSON envelope sent to clients.
type Message struct {
	Event       string `json:"event"`
	Data        any    `json:"data,omitempty"`
	Error       string `json:"error,omitempty"`
	GeneratedAt string `json:"generated_at"` // RFC3339
}

// inbound is a client → server frame.
type inbound struct {
	Type string `json:"type"` // "analyze"
	Text string `json:"text"`
}

// Hub manages WebSocket clients. It broadcasts the current mood stats to all
// of them every interval and, when an AnalyzeFunc is set, answers analyze
// requests from individual clients.
type Hub struct {
	src      StatsSource
	analyze  AnalyzeFunc
	interval time.Duration
	limiter  FrameLimiter

	mu      sync.RWMutex
	clients map[*client]struct{}
	stopped bool
}

// client is one connected WebSocket. send is closed only by the hub while
// holding mu for writing, after the client is removed from clients.
type client struct {
	conn *websocket.Conn
	send chan []byte
	key  string // rate limit key
}

// New creates a Hub that reads from src and broadcasts every interval.
// analyze may be nil, in which case inbound frames are ignored.
func New(src StatsSource, interval time.Duration, analyze AnalyzeFunc) *Hub {
	return &Hub{
		src:      src,
		analyze:  analyze,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// LimitFrames throttles analyze frames with l, keyed by client IP. Call it
// before serving.
func (h *Hub) LimitFrames(l FrameLimiter) {
	h.limiter = l
}

// Run broadcasts stats every interval until ctx is cancelled, then closes
// all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the connection and serves the client until it
// disconnects. The current stats are sent immediately on connect.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufSize), key: ratelimit.ClientKey(r)}
	if !h.register(c) {
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	defer h.unregister(c)

	if data, err := h.statsMessage(); err == nil {
		h.deliver(c, data)
	}

	go c.writePump()
	h.readPump(r.Context(), c)
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// register adds c unless the hub has stopped.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// deliver queues data for c without blocking. It reports false when c is
// gone or its buffer is full.
func (h *Hub) deliver(c *client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) broadcast() {
	data, err := h.statsMessage()
	if err != nil {
		slog.Error("ws: encode stats", "err", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Debug("ws: dropping slow client", "remote", c.conn.RemoteAddr().String())
		h.unregister(c)
	}
}

func (h *Hub) statsMessage() ([]byte, error) {
	return encode(Message{Event: "stats", Data: h.src.Stats()})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// readPump handles inbound frames until the connection closes. Pongs extend
// the read deadline.
func (h *Hub) readPump(ctx context.Context, c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxInboundBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if h.analyze == nil {
			continue
		}
		reply := h.handleFrame(ctx, c, frame)
		if reply != nil && !h.deliver(c, reply) {
			return
		}
	}
}

// handleFrame answers one inbound frame. Unknown frame types are ignored.
func (h *Hub) handleFrame(ctx context.Context, c *client, frame []byte) []byte {
	var in inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		data, _ := encode(Message{Event: "error", Error: "frame must be JSON like {\"type\":\"analyze\",\"text\":\"...\"}"})
		return data
	}
	if in.Type != "analyze" {
		return nil
	}
	if h.limiter != nil && !h.limiter.Allow(c.key, time.Now()) {
		slog.Warn("ws: analyze frame rejected", "client", c.key)
		data, _ := encode(Message{Event: "error", Error: msgSlowDown})
		return data
	}

	res, err := h.analyze(ctx, in.Text)
	msg := Message{Event: "analysis", Data: res}
	if err != nil {
		msg = Message{Event: "error", Error: err.Error()}
	}
	data, err := encode(msg)
	if err != nil {
		slog.Error("ws: encode reply", "err", err)
		return nil
	}
	return data
}

// writePump forwards queued messages to the connection and sends periodic
// pings. Runs in its own goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(m Message) ([]byte, error) {
	m.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(m)
}
