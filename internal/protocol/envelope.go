// Package protocol defines the JSON wire contract between the client and the game server.
//
// Every frame is an Envelope naming the event and carrying its payload, mirroring the
// named-event channel the server speaks.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event names (server → client).
const (
	EventGameState    = "game_state"
	EventCombatUpdate = "combat_update"
	EventPlayerDied   = "player_died"
	EventIDTaken      = "id_taken"
)

// Outbound event names (client → server).
const (
	EventSelectID      = "select_id"
	EventMove          = "move"
	EventActionRequest = "combat_action_request"
)

// ErrMissingEvent is returned by Decode for a frame without an event name.
var ErrMissingEvent = errors.New("decoding envelope: missing event name")

// Envelope is one frame on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an Envelope for the named event. A nil payload yields
// an Envelope without data.
//
// Postcondition: Returns an Envelope or a non-nil error if payload cannot be marshalled.
func NewEnvelope(event string, payload any) (Envelope, error) {
	env := Envelope{Event: event}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshalling %s payload: %w", event, err)
	}
	env.Data = data
	return env, nil
}

// Decode unmarshals one wire frame.
//
// Postcondition: Returns the Envelope, or a non-nil error if data is not a JSON envelope
// with a non-empty event name.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// Encode marshals an Envelope into one wire frame.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding %s envelope: %w", env.Event, err)
	}
	return data, nil
}

// Notice is the payload of server notices such as id_taken.
type Notice struct {
	Message string `json:"message"`
}

// DecodeNotice extracts the message of a notice payload. A missing or malformed payload
// yields an empty message.
func DecodeNotice(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var n Notice
	if err := json.Unmarshal(data, &n); err != nil {
		return ""
	}
	return n.Message
}
