package core

import (
	"encoding/json"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNewMessage notifies room members about a chat message.
	EventNewMessage EventKind = iota
	// EventUserJoined notifies room members that a connection joined.
	EventUserJoined
	// EventUserLeft notifies room members that a connection left.
	EventUserLeft
	// EventSignal relays an opaque peer-negotiation payload.
	EventSignal
)

// Event is sent to clients to describe what happened in a room.
type Event struct {
	Kind EventKind
	Room string

	// ClientID and DisplayName identify the connection behind
	// user-joined and user-left events.
	ClientID    string
	DisplayName string

	// Message is the persisted record behind new-message events.
	Message *store.Message

	// From and Signal carry relayed signaling data. Signal is never
	// inspected by the core.
	From   string
	Signal json.RawMessage
}
