/*
Package hub implements the connection/session core.

This file is the wire codec: one JSON object per websocket text frame, tagged
by the "t" discriminator with the payload under "c". Nonces are opaque
client-chosen tokens; the server carries them from request to response
without ever interpreting them.
*/
package hub

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Wire frame type discriminators.
const (
	TypeConnect          = "/connect"
	TypeConnected        = "/connected"
	TypeIsOnline         = "/is_online"
	TypeIsOnlineBulk     = "/is_online/bulk"
	TypeError            = "/error"
	TypeBroadcast        = "/broadcast"
	TypePing             = "/ping"
	TypePong             = "/pong"
	TypeCosmeticsUpdate  = "/cosmetics/update"
	TypeCosmeticsUpdated = "/cosmetics/updated"
	TypeCosmeticsAck     = "/cosmetics/ack"
	TypeIrcCreate        = "/irc/create"
	TypeIrcCreated       = "/irc/created"
)

// Frame is the outer shape of every wire message.
type Frame struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c,omitempty"`
}

// ClientMessage is a parsed inbound frame. The set is closed: the read pump
// dispatches over every implementation.
type ClientMessage interface {
	clientMessage()
}

// ConnectMessage carries the client-supplied handshake credentials.
type ConnectMessage struct {
	ServerID string `json:"server_id"`
	Username string `json:"username"`
}

// IsOnlineMessage requests the presence of one identity.
type IsOnlineMessage struct {
	UUID  uuid.UUID `json:"uuid"`
	Nonce *string   `json:"nonce,omitempty"`
}

// IsOnlineBulkMessage requests the presence of a set of identities.
type IsOnlineBulkMessage struct {
	UUIDs []uuid.UUID `json:"uuids"`
	Nonce *string     `json:"nonce,omitempty"`
}

// PingMessage requests a pong echo. The content is a bare nonce string.
type PingMessage struct {
	Nonce *string
}

// CosmeticsUpdateMessage requests a cosmetic assignment; a nil id clears the
// active prefix.
type CosmeticsUpdateMessage struct {
	CosmeticID *uint8  `json:"cosmetic_id"`
	Nonce      *string `json:"nonce,omitempty"`
}

// IrcCreateMessage submits a chat line for relay.
type IrcCreateMessage struct {
	Message string `json:"message"`
}

// ClientErrorMessage is an error frame echoed back by a client.
type ClientErrorMessage struct {
	Error string  `json:"error"`
	Nonce *string `json:"nonce,omitempty"`
}

func (ConnectMessage) clientMessage()         {}
func (IsOnlineMessage) clientMessage()        {}
func (IsOnlineBulkMessage) clientMessage()    {}
func (PingMessage) clientMessage()            {}
func (CosmeticsUpdateMessage) clientMessage() {}
func (IrcCreateMessage) clientMessage()       {}
func (ClientErrorMessage) clientMessage()     {}

// parseClientFrame decodes one inbound text frame into its typed form.
func parseClientFrame(data []byte) (ClientMessage, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	switch frame.T {
	case TypeConnect:
		var msg ConnectMessage
		if err := json.Unmarshal(frame.C, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s content: %w", frame.T, err)
		}
		return msg, nil

	case TypeIsOnline:
		var msg IsOnlineMessage
		if err := json.Unmarshal(frame.C, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s content: %w", frame.T, err)
		}
		return msg, nil

	case TypeIsOnlineBulk:
		var msg IsOnlineBulkMessage
		if err := json.Unmarshal(frame.C, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s content: %w", frame.T, err)
		}
		return msg, nil

	case TypePing:
		var nonce *string
		if len(frame.C) > 0 {
			if err := json.Unmarshal(frame.C, &nonce); err != nil {
				return nil, fmt.Errorf("invalid %s content: %w", frame.T, err)
			}
		}
		return PingMessage{Nonce: nonce}, nil

	case TypeCosmeticsUpdate:
		var msg CosmeticsUpdateMessage
		if err := json.Unmarshal(frame.C, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s content: %w", frame.T, err)
		}
		return msg, nil

	case TypeIrcCreate:
		var msg IrcCreateMessage
		if err := json.Unmarshal(frame.C, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s content: %w", frame.T, err)
		}
		return msg, nil

	case TypeError:
		var msg ClientErrorMessage
		if err := json.Unmarshal(frame.C, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s content: %w", frame.T, err)
		}
		return msg, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", frame.T)
	}
}

// encodeFrame marshals an outbound frame. A nil content omits "c" entirely.
func encodeFrame(t string, c any) ([]byte, error) {
	frame := Frame{T: t}

	if c != nil {
		content, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal %s content: %w", t, err)
		}
		frame.C = content
	}

	return json.Marshal(frame)
}

type errorContent struct {
	Error string  `json:"error"`
	Nonce *string `json:"nonce,omitempty"`
}

type isOnlineContent struct {
	IsOnline bool      `json:"is_online"`
	UUID     uuid.UUID `json:"uuid"`
	Nonce    *string   `json:"nonce,omitempty"`
}

type isOnlineBulkContent struct {
	Users map[uuid.UUID]bool `json:"users"`
	Nonce *string            `json:"nonce,omitempty"`
}

type cosmeticsUpdatedContent struct {
	CosmeticID *uint8  `json:"cosmetic_id"`
	Nonce      *string `json:"nonce,omitempty"`
}

type ircCreatedContent struct {
	Message string    `json:"message"`
	Sender  uuid.UUID `json:"sender"`
	Date    int64     `json:"date"`
}
