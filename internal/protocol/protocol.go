// Package protocol defines the WebSocket messages exchanged between the
// service and its front-end.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeEvent is sent by the service for every emitted notification
	TypeEvent MessageType = "event"

	// TypeInvoke is sent by a client to run a command
	TypeInvoke MessageType = "invoke"

	// TypeResult answers an invoke with the same ID
	TypeResult MessageType = "result"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Commands accepted by invoke and by the HTTP API.
const (
	CmdBindKey      = "bind_key"
	CmdBindHoldKey  = "bind_hold_key"
	CmdActiveHandle = "active_handle"
	CmdMouseMove    = "mouse_move"
	CmdMouseClick   = "mouse_click"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType     `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes payload into a message of type t.
func NewMessage(t MessageType, id string, payload any) (Message, error) {
	msg := Message{Type: t, ID: id}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return msg, fmt.Errorf("encode %s payload: %w", t, err)
	}
	msg.Payload = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// EventPayload is the payload for TypeEvent
type EventPayload struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// InvokePayload is the payload for TypeInvoke
type InvokePayload struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// ResultPayload is the payload for TypeResult
type ResultPayload struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BindArgs are the arguments of bind_key and bind_hold_key.
type BindArgs struct {
	NameKey string `json:"name_key"`
}

// MoveArgs are the arguments of mouse_move. Gated runs honour the script
// toggle and are skipped while another gated move is in flight.
type MoveArgs struct {
	Sensitivity int  `json:"sensitivity"`
	Times       uint `json:"times"`
	Rate        uint `json:"rate"`
	Gated       bool `json:"gated,omitempty"`
}

// ClickArgs are the arguments of mouse_click.
type ClickArgs struct {
	Times uint `json:"times"`
	Rate  uint `json:"rate"`
	Gated bool `json:"gated,omitempty"`
}
