package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client. ID is a
// client-chosen correlation number; events that expect an
// acknowledgement (join-room, send-message) get exactly one ack
// envelope carrying the same ID. signal is fire-and-forget.
type Inbound struct {
	ID   uint64          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin   = "join-room"
	InboundTypeMsg    = "send-message"
	InboundTypeSignal = "signal"

	OutboundTypeAck   = "ack"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNewMessage = "new-message"
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventSignal     = "signal"
)

// JoinData requests to join a room by code.
type JoinData struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName,omitempty"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	RoomCode string         `json:"roomCode"`
	Type     string         `json:"type,omitempty"`
	Content  string         `json:"content"`
	Meta     map[string]any `json:"meta,omitempty"`
	Sender   string         `json:"sender,omitempty"`
}

// SignalData is an opaque peer-negotiation payload. Signal is relayed
// without interpretation; To optionally names a single target
// connection.
type SignalData struct {
	RoomCode string          `json:"roomCode"`
	To       string          `json:"to,omitempty"`
	Signal   json.RawMessage `json:"signal"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	ID    uint64 `json:"id,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// JoinAck acknowledges a join-room event.
type JoinAck struct {
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	Recent []Message `json:"recent,omitempty"`
}

// MessageAck acknowledges a send-message event.
type MessageAck struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Message is the wire form of a chat message. CreatedAt is RFC3339,
// matching the history API so clients can merge live and stored
// messages directly.
type Message struct {
	ID        int64          `json:"id"`
	RoomCode  string         `json:"roomCode"`
	Sender    string         `json:"sender"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Meta      map[string]any `json:"meta"`
	CreatedAt string         `json:"createdAt"`
}

// UserJoined notifies room members that a connection joined.
type UserJoined struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// UserLeft notifies room members that a connection left.
type UserLeft struct {
	ID string `json:"id"`
}

// Signal is a relayed peer-negotiation payload.
type Signal struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
