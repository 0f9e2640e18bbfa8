package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// DefaultPushInterval is the repeating fetch-and-push cadence per session.
	DefaultPushInterval = 5 * time.Second

	// DefaultWriteTimeout bounds a single WebSocket write so one stalled
	// client cannot wedge its session goroutine forever.
	DefaultWriteTimeout = 10 * time.Second
)

// Fetcher resolves channel identifiers to full row sets. Implementations must
// be safe for concurrent use from many sessions; channels.Registry is the
// production implementation.
type Fetcher interface {
	Has(channel string) bool
	Fetch(ctx context.Context, channel string) ([]map[string]any, error)
}

// Config carries the session timing knobs. Zero values fall back to the
// production defaults; tests use millisecond intervals.
type Config struct {
	PushInterval time.Duration
	WriteTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PushInterval <= 0 {
		c.PushInterval = DefaultPushInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}

// Session owns one authenticated WebSocket connection: its subscription set,
// its single repeating push timer, and all writes to the socket.
//
// All state is confined to the goroutine running Run. The read loop only
// decodes frames and forwards typed commands; subscriptions, the timer, and
// pushes are handled in one place, which is what makes "at most one timer,
// stopped exactly once" hold by construction.
type Session struct {
	id      string
	subject string
	conn    *websocket.Conn
	fetcher Fetcher
	cfg     Config

	channels []string // current subscription set, replaced wholesale on subscribe
}

// NewSession binds a session to an already-authenticated connection.
func NewSession(conn *websocket.Conn, fetcher Fetcher, subject string, cfg Config) *Session {
	return &Session{
		id:      uuid.New().String(),
		subject: subject,
		conn:    conn,
		fetcher: fetcher,
		cfg:     cfg.withDefaults(),
	}
}

// ID returns the session identifier (for logs).
func (s *Session) ID() string { return s.id }

// Subject returns the authenticated identity this session runs as.
func (s *Session) Subject() string { return s.subject }

// CloseWith closes the underlying connection with the given status. Run
// notices the dead transport and returns. Safe to call from any goroutine.
func (s *Session) CloseWith(code websocket.StatusCode, reason string) {
	_ = s.conn.Close(code, reason)
}

// Run drives the session until the transport closes, the peer errors, or ctx
// is cancelled. It blocks; the caller owns the connection's lifetime through
// this call. On return the push timer has been stopped and the connection
// closed — no further pushes are attempted.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.conn.Close(websocket.StatusNormalClosure, "")

	cmds := make(chan Command)
	go s.readLoop(ctx, cmds)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				// Transport closed or read error.
				return
			}
			switch c := cmd.(type) {
			case SubscribeCommand:
				s.handleSubscribe(ctx, c.Channels)
				// One timer per session: replace, never accumulate.
				if ticker != nil {
					ticker.Stop()
				}
				ticker = time.NewTicker(s.cfg.PushInterval)
				tickC = ticker.C
			case RefreshCommand:
				s.handleRefresh(ctx, c.Channel)
			}

		case <-tickC:
			s.pushAll(ctx)

		case <-ctx.Done():
			return
		}
	}
}

// readLoop decodes inbound frames and forwards commands to Run. Malformed
// frames are logged and dropped; the session stays open.
func (s *Session) readLoop(ctx context.Context, cmds chan<- Command) {
	defer close(cmds)
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}

		cmd, err := DecodeCommand(data)
		if err != nil {
			slog.Warn("Ignoring malformed live message",
				"session_id", s.id, "error", err)
			continue
		}

		select {
		case cmds <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

// handleSubscribe replaces the subscription set with the known subset of the
// requested channels (unknown identifiers are silently dropped), then pushes
// every kept channel once before the timer takes over.
func (s *Session) handleSubscribe(ctx context.Context, requested []string) {
	kept := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, ch := range requested {
		if s.fetcher.Has(ch) && !seen[ch] {
			kept = append(kept, ch)
			seen[ch] = true
		}
	}
	s.channels = kept

	slog.Debug("Live subscription replaced",
		"session_id", s.id, "channels", kept)

	s.pushAll(ctx)
}

// handleRefresh pushes one subscribed channel (no-op when not subscribed) or,
// for RefreshAll, every subscribed channel. The timer and subscription set are
// untouched.
func (s *Session) handleRefresh(ctx context.Context, channel string) {
	if channel == RefreshAll {
		s.pushAll(ctx)
		return
	}
	for _, ch := range s.channels {
		if ch == channel {
			s.fetchAndPush(ctx, ch)
			return
		}
	}
}

// pushAll fetches and pushes every subscribed channel in order. Each push is
// awaited before the next starts, which is what gives the per-channel
// ordering guarantee.
func (s *Session) pushAll(ctx context.Context) {
	for _, ch := range s.channels {
		s.fetchAndPush(ctx, ch)
	}
}

// fetchAndPush sends one channel's row set, or a channel-scoped error frame
// when the fetch fails. Fetch failures never close the session and never stop
// the timer — the other channels keep flowing.
func (s *Session) fetchAndPush(ctx context.Context, channel string) {
	rows, err := s.fetcher.Fetch(ctx, channel)
	if err != nil {
		slog.Warn("Channel fetch failed",
			"session_id", s.id, "channel", channel, "error", err)
		s.writeJSON(ctx, ErrorPush{
			Type:    PushTypeError,
			Channel: channel,
			Message: err.Error(),
		})
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	s.writeJSON(ctx, DataPush{Type: channel, Data: rows})
}

// writeJSON marshals and sends one frame with the session write timeout.
// Write errors are logged only; the read loop notices the dead transport and
// ends the session.
func (s *Session) writeJSON(ctx context.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to marshal live push", "session_id", s.id, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Warn("Failed to write live push", "session_id", s.id, "error", err)
	}
}
