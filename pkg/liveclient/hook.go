// Package liveclient is the consumer side of the live-data layer: a Hook owns
// one WebSocket connection subscribed to a single channel, keeps the latest
// pushed row set, and transparently reconnects after a fixed delay whenever
// the transport drops. Go services that watch dashboard data (exporters,
// generation dialogs, smoke checks) use it the way the web dashboard uses its
// realtime hook.
package liveclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// DefaultReconnectDelay is the fixed wait before re-dialing after a close.
// There is deliberately no backoff growth; see the server's matching
// fixed-cadence design.
const DefaultReconnectDelay = 3 * time.Second

const dialTimeout = 10 * time.Second
const writeTimeout = 5 * time.Second

// State describes what a consumer should render for this hook.
type State string

const (
	// StateUnauthenticated means no credential was available; the hook made
	// no connection attempt and will not retry. The consumer should redirect
	// to login rather than wait.
	StateUnauthenticated State = "unauthenticated"

	// StateConnecting covers dialing and waiting for the first push.
	StateConnecting State = "connecting"

	// StateLoaded means at least one row set has arrived and is held.
	StateLoaded State = "loaded"

	// StateRetrying means the transport dropped and a reconnect is pending.
	// Any previously loaded snapshot is still available.
	StateRetrying State = "retrying"

	// StateClosed means Close was called; the hook is inert.
	StateClosed State = "closed"
)

// TokenSource supplies the current bearer credential, or "" when the consumer
// is not logged in.
type TokenSource func() string

// Config parameterizes a Hook.
type Config struct {
	// URL is the live endpoint, e.g. "ws://localhost:3001/ws-live".
	URL string

	// Channel is the single channel this hook subscribes to. One hook, one
	// channel — the protocol multiplexes, the client deliberately does not.
	Channel string

	// Token supplies the credential attached as a ?token= parameter.
	Token TokenSource

	// ReconnectDelay overrides DefaultReconnectDelay (tests use milliseconds).
	ReconnectDelay time.Duration
}

// Hook holds one channel's live snapshot over a self-healing connection.
//
// Invariants: at most one live connection and at most one pending reconnect
// timer exist at any time. Close cancels the pending timer and closes the
// transport without scheduling another reconnect.
type Hook struct {
	cfg Config

	mu        sync.Mutex
	conn      *websocket.Conn
	connStop  context.CancelFunc
	reconnect *time.Timer
	gen       int // connection generation; stale read loops are ignored

	data     []map[string]any
	loaded   bool
	lastErr  string
	retrying bool
	unauth   bool
	closed   bool
}

// New creates a hook. Call Connect to start it.
func New(cfg Config) *Hook {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Hook{cfg: cfg}
}

// Connect dials the live endpoint, subscribes to the hook's channel, and
// starts the read loop. With no credential available it records the
// unauthenticated state and returns without attempting a connection.
// Safe to call again; any previous connection is replaced.
func (h *Hook) Connect() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	token := h.cfg.Token()
	if token == "" {
		h.unauth = true
		h.lastErr = "not authenticated"
		h.mu.Unlock()
		return
	}
	h.unauth = false

	// Replace any existing connection without letting its read loop schedule
	// a reconnect of its own.
	if h.connStop != nil {
		h.connStop()
		h.connStop = nil
	}
	if h.conn != nil {
		_ = h.conn.CloseNow()
		h.conn = nil
	}
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, h.cfg.URL+"?token="+url.QueryEscape(token), nil)
	dialCancel()
	if err != nil {
		cancel()
		slog.Warn("Live hook dial failed", "channel", h.cfg.Channel, "error", err)
		h.scheduleReconnect(gen)
		return
	}

	h.mu.Lock()
	if h.closed || gen != h.gen {
		// Torn down or superseded while dialing.
		h.mu.Unlock()
		cancel()
		_ = conn.CloseNow()
		return
	}
	h.conn = conn
	h.connStop = cancel
	h.retrying = false
	h.lastErr = ""
	h.mu.Unlock()

	sub, _ := json.Marshal(map[string][]string{"subscribe": {h.cfg.Channel}})
	writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
	err = conn.Write(writeCtx, websocket.MessageText, sub)
	writeCancel()
	if err != nil {
		slog.Warn("Live hook subscribe failed", "channel", h.cfg.Channel, "error", err)
		h.scheduleReconnect(gen)
		return
	}

	go h.readLoop(ctx, conn, gen)
}

// Refresh asks the server for an immediate out-of-cadence push of this hook's
// channel. A no-op when no transport is open — the reconnect path resubscribes
// and implicitly refreshes anyway.
func (h *Hook) Refresh() {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return
	}

	msg, _ := json.Marshal(map[string]string{"refresh": h.cfg.Channel})
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		slog.Warn("Live hook refresh failed", "channel", h.cfg.Channel, "error", err)
	}
}

// Close tears the hook down: the pending reconnect (if any) is cancelled
// first, then the transport is closed. The dying read loop cannot schedule
// another reconnect afterwards.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if h.reconnect != nil {
		h.reconnect.Stop()
		h.reconnect = nil
	}
	if h.connStop != nil {
		h.connStop()
		h.connStop = nil
	}
	if h.conn != nil {
		_ = h.conn.CloseNow()
		h.conn = nil
	}
}

// Snapshot returns the last received row set (nil before the first push) and
// whether any push has arrived yet.
func (h *Hook) Snapshot() ([]map[string]any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data, h.loaded
}

// Err returns the last error surfaced to the consumer ("" when healthy).
func (h *Hook) Err() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// State reports what the consumer should render right now.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.closed:
		return StateClosed
	case h.unauth:
		return StateUnauthenticated
	case h.retrying:
		return StateRetrying
	case h.loaded:
		return StateLoaded
	default:
		return StateConnecting
	}
}

// readLoop consumes pushes until the transport dies, then hands off to the
// reconnect path unless this loop has been superseded or the hook closed.
func (h *Hook) readLoop(ctx context.Context, conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.scheduleReconnect(gen)
			return
		}

		var msg struct {
			Type    string           `json:"type"`
			Data    []map[string]any `json:"data"`
			Channel string           `json:"channel"`
			Message string           `json:"message"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch {
		case msg.Type == h.cfg.Channel:
			h.mu.Lock()
			if gen == h.gen && !h.closed {
				h.data = msg.Data
				h.loaded = true
				h.lastErr = ""
			}
			h.mu.Unlock()

		case msg.Type == "error" && msg.Channel == h.cfg.Channel:
			// A server-side fetch failure: keep the previous snapshot so a
			// transient error never blanks an already-loaded view.
			h.mu.Lock()
			if gen == h.gen && !h.closed {
				h.lastErr = msg.Message
			}
			h.mu.Unlock()
		}
	}
}

// scheduleReconnect arms the single reconnect timer after a transport
// failure. Redundant calls while a timer is already pending are no-ops, and
// nothing is scheduled once Close has run or a newer connection exists.
func (h *Hook) scheduleReconnect(gen int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || gen != h.gen {
		return
	}
	h.retrying = true
	h.lastErr = "connection error — retrying"
	h.conn = nil
	if h.connStop != nil {
		h.connStop()
		h.connStop = nil
	}
	if h.reconnect != nil {
		return
	}
	h.reconnect = time.AfterFunc(h.cfg.ReconnectDelay, func() {
		h.mu.Lock()
		h.reconnect = nil
		closed := h.closed
		h.mu.Unlock()
		if !closed {
			h.Connect()
		}
	})
}
