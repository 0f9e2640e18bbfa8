package live

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// TokenVerifier checks a bearer credential and yields the authenticated
// subject. auth.JWTService is the production implementation.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// Server accepts live connections, authenticates them, and runs one Session
// per accepted connection. Sessions are independent; a stalled fetch on one
// never blocks another.
type Server struct {
	verifier TokenVerifier
	fetcher  Fetcher
	cfg      Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewServer creates a live server over the given verifier and channel fetcher.
func NewServer(verifier TokenVerifier, fetcher Fetcher, cfg Config) *Server {
	return &Server{
		verifier: verifier,
		fetcher:  fetcher,
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// HandleConnection upgrades the request and, after the credential check
// passes, blocks running the session until the connection closes.
//
// The credential travels as a ?token= query parameter because WebSocket
// upgrades cannot carry custom headers from browsers. Rejections close with
// distinct status codes — StatusMissingToken vs StatusUnauthorized — so the
// client can tell "re-login" apart from "retry". No session exists until the
// token has been verified.
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	token := r.URL.Query().Get("token")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin checks are enforced by the reverse proxy in front of the
		// dashboard; the token check below is the real gate.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	if token == "" {
		slog.Warn("Live connection rejected: missing token", "remote", r.RemoteAddr)
		return conn.Close(StatusMissingToken, "missing token")
	}

	subject, err := s.verifier.Verify(token)
	if err != nil {
		slog.Warn("Live connection rejected: unauthorized",
			"remote", r.RemoteAddr, "error", err)
		return conn.Close(StatusUnauthorized, "unauthorized")
	}

	sess := NewSession(conn, s.fetcher, subject, s.cfg)
	s.register(sess)
	defer s.unregister(sess)

	slog.Info("Live client connected", "session_id", sess.ID(), "subject", subject)
	sess.Run(r.Context())
	slog.Info("Live client disconnected", "session_id", sess.ID())
	return nil
}

// Shutdown closes every active session with a going-away frame. Handlers
// blocked in HandleConnection return once their connection closes.
func (s *Server) Shutdown() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.CloseWith(websocket.StatusGoingAway, "server shutting down")
	}
}

// ActiveSessions returns the number of currently running sessions.
func (s *Server) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.ID())
}
