// Package live implements the real-time data layer: authenticated WebSocket
// connections through which the server pushes full channel row sets, either on
// a repeating per-session timer or on client demand.
//
// Wire protocol (JSON text frames):
//
//	client → server:  {"subscribe": ["news", "images"]}   replace subscription set
//	                  {"refresh": "news"}                 push one channel now
//	                  {"refresh": "all"}                  push all subscribed now
//	server → client:  {"type": "news", "data": [...]}     channel row set
//	                  {"type": "error", "channel": "news", "message": "..."}
//
// A connection carrying no token, or a token that fails verification, is
// closed immediately with a distinguishing status code before any session is
// created.
package live

import (
	"encoding/json"
	"errors"

	"github.com/coder/websocket"
)

// Close codes for rejected connection attempts. They are distinct so clients
// can tell "log in again" (missing/bad credential) apart at the close frame
// without a REST round trip.
const (
	StatusMissingToken websocket.StatusCode = 4001
	StatusUnauthorized websocket.StatusCode = 4002
)

// RefreshAll is the refresh target meaning "every currently subscribed channel".
const RefreshAll = "all"

// ErrUnknownCommand is returned by DecodeCommand for syntactically valid JSON
// that is neither a subscribe nor a refresh message.
var ErrUnknownCommand = errors.New("message has neither subscribe nor refresh")

// Command is a decoded client→server message: exactly one of SubscribeCommand
// or RefreshCommand.
type Command interface {
	isCommand()
}

// SubscribeCommand replaces the session's subscription set wholesale.
type SubscribeCommand struct {
	Channels []string
}

// RefreshCommand requests an immediate out-of-cadence push for one subscribed
// channel, or for all of them when Channel == RefreshAll.
type RefreshCommand struct {
	Channel string
}

func (SubscribeCommand) isCommand() {}
func (RefreshCommand) isCommand()   {}

// clientMessage is the raw JSON envelope. Subscribe wins if both keys are set,
// matching the dispatch order the dashboard has always relied on.
type clientMessage struct {
	Subscribe []string `json:"subscribe"`
	Refresh   string   `json:"refresh"`
}

// DecodeCommand parses a client frame into a typed command. Malformed JSON and
// envelopes without a recognized key both return an error; the session logs
// and ignores such frames without closing the connection.
func DecodeCommand(data []byte) (Command, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Subscribe != nil {
		return SubscribeCommand{Channels: msg.Subscribe}, nil
	}
	if msg.Refresh != "" {
		return RefreshCommand{Channel: msg.Refresh}, nil
	}
	return nil, ErrUnknownCommand
}

// DataPush is the server→client frame carrying one channel's full row set.
type DataPush struct {
	Type string           `json:"type"` // channel identifier
	Data []map[string]any `json:"data"`
}

// ErrorPush is the server→client frame reporting a fetch failure for one
// channel. Other channels on the same session are unaffected.
type ErrorPush struct {
	Type    string `json:"type"` // always "error"
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// PushTypeError is the Type value of every ErrorPush frame.
const PushTypeError = "error"
