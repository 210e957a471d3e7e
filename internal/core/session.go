package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
)

// historyLimit caps the recent-message snapshot returned on join.
const historyLimit = 50

// Protocol-level error strings surfaced in acknowledgements. Store and
// transport failures collapse to "server error"; the detail stays in
// the server log.
const (
	errRoomCodeRequired = "roomCode required"
	errInvalidRoomCode  = "invalid room code format"
	errContentRequired  = "roomCode & content required"
	errServer           = "server error"
)

// SessionHandler implements the per-connection protocol: join,
// send-message, signal, disconnect. It orchestrates persistence and
// broadcast for each event; nothing here is allowed to crash the relay
// on a per-event basis.
type SessionHandler struct {
	registry *Registry
	store    store.Store
	log      *zerolog.Logger
}

// NewSessionHandler builds a session handler on top of a registry and
// a persistence store.
func NewSessionHandler(registry *Registry, st store.Store, logger *zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		store:    st,
		log:      logger,
	}
}

// Connect registers a freshly accepted connection. The client stays
// unjoined until a successful Join.
func (h *SessionHandler) Connect(c *Client) {
	h.registry.Add(c)
}

// JoinResult is the acknowledgement for a join event.
type JoinResult struct {
	OK     bool
	Error  string
	Recent []*store.Message
}

// MessageResult is the acknowledgement for a send-message event.
type MessageResult struct {
	OK      bool
	Error   string
	Message *store.Message
}

// MessageInput carries the client-supplied fields of a send-message event.
type MessageInput struct {
	RoomCode string
	Type     store.MessageType
	Content  string
	Meta     map[string]any
	Sender   string
}

// Join validates the room code, finds or creates the room, registers
// the connection, and returns the most recent messages in chronological
// order. Other room members are notified with a user-joined event.
// On any store failure the connection stays unjoined.
func (h *SessionHandler) Join(ctx context.Context, c *Client, roomCode, displayName string) *JoinResult {
	if roomCode == "" {
		return &JoinResult{Error: errRoomCodeRequired}
	}
	if !IsValidRoomCode(roomCode) {
		return &JoinResult{Error: errInvalidRoomCode}
	}

	if _, err := h.store.GetRoomByCode(ctx, roomCode); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error().Err(err).Str("room", roomCode).Msg("join: room lookup failed")
			return &JoinResult{Error: errServer}
		}
		if _, err := h.store.CreateRoom(ctx, roomCode, nil, nil, nil); err != nil {
			// A concurrent join may have created it first.
			if !errors.Is(err, store.ErrDuplicateCode) {
				h.log.Error().Err(err).Str("room", roomCode).Msg("join: room create failed")
				return &JoinResult{Error: errServer}
			}
		}
	}

	recent, err := h.store.RecentMessages(ctx, roomCode, historyLimit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomCode).Msg("join: history fetch failed")
		return &JoinResult{Error: errServer}
	}

	if displayName == "" {
		displayName = "anonymous"
	}
	h.registry.Join(c, roomCode, displayName)

	h.registry.BroadcastToRoom(roomCode, &Event{
		Kind:        EventUserJoined,
		Room:        roomCode,
		ClientID:    c.ID,
		DisplayName: displayName,
	}, c.ID)

	h.log.Debug().Str("client_id", c.ID).Str("room", roomCode).Str("name", displayName).Msg("client joined room")
	return &JoinResult{OK: true, Recent: recent}
}

// SendMessage persists a message and broadcasts it to the whole room,
// sender included. Sender resolution: explicit payload sender, then the
// session's display name, then "anonymous". A send is tolerated from an
// unjoined connection as long as the room code is supplied.
func (h *SessionHandler) SendMessage(ctx context.Context, c *Client, in MessageInput) *MessageResult {
	if in.RoomCode == "" || in.Content == "" {
		return &MessageResult{Error: errContentRequired}
	}

	sender := in.Sender
	if sender == "" {
		if sess, ok := h.registry.Session(c.ID); ok {
			sender = sess.DisplayName
		}
	}
	if sender == "" {
		sender = "anonymous"
	}

	msgType := in.Type
	if msgType == "" {
		msgType = store.MessageTypeText
	}
	meta := in.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	msg := &store.Message{
		RoomCode: in.RoomCode,
		Sender:   sender,
		Type:     msgType,
		Content:  in.Content,
		Meta:     meta,
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		h.log.Error().Err(err).Str("room", in.RoomCode).Msg("send-message: persist failed")
		return &MessageResult{Error: errServer}
	}

	h.registry.BroadcastToRoom(in.RoomCode, &Event{
		Kind:    EventNewMessage,
		Room:    in.RoomCode,
		Message: msg,
	}, "")

	return &MessageResult{OK: true, Message: msg}
}

// Signal relays an opaque payload. With a target connection ID it goes
// to that connection only; otherwise to the whole room excluding the
// sender. Fire-and-forget: no acknowledgement, no persistence, and a
// missing room code drops the event silently.
func (h *SessionHandler) Signal(c *Client, roomCode, to string, signal json.RawMessage) {
	if roomCode == "" {
		return
	}

	event := &Event{
		Kind:   EventSignal,
		Room:   roomCode,
		From:   c.ID,
		Signal: signal,
	}

	if to != "" {
		h.registry.SendTo(to, event)
		return
	}
	h.registry.BroadcastToRoom(roomCode, event, c.ID)
}

// Disconnect removes the connection and, if it had joined a room,
// notifies the remaining members with a user-left event. Best-effort
// cleanup only.
func (h *SessionHandler) Disconnect(c *Client) {
	sess, ok := h.registry.Remove(c)
	if !ok || sess.RoomCode == "" {
		return
	}

	h.registry.BroadcastToRoom(sess.RoomCode, &Event{
		Kind:     EventUserLeft,
		Room:     sess.RoomCode,
		ClientID: c.ID,
	}, c.ID)

	h.log.Debug().Str("client_id", c.ID).Str("room", sess.RoomCode).Msg("client disconnected")
}

// BroadcastImage synthesizes a new-message broadcast for a freshly
// uploaded image. The message is not written to the store, so it will
// be missing from history queries.
// TODO: decide whether upload broadcasts should persist like regular
// messages; today clients joining later never see them.
func (h *SessionHandler) BroadcastImage(roomCode, sender, url string, meta map[string]any) {
	if roomCode == "" {
		return
	}
	if sender == "" {
		sender = "anonymous"
	}
	if meta == nil {
		meta = map[string]any{}
	}

	h.registry.BroadcastToRoom(roomCode, &Event{
		Kind: EventNewMessage,
		Room: roomCode,
		Message: &store.Message{
			RoomCode:  roomCode,
			Sender:    sender,
			Type:      store.MessageTypeImage,
			Content:   url,
			Meta:      meta,
			CreatedAt: time.Now().UTC(),
		},
	}, "")
}
