package core

import "sync"

// Session is the per-connection state tracked while a client is live.
type Session struct {
	RoomCode    string
	DisplayName string
}

// Registry owns the live mapping from connection ID to client and
// session, and the room membership sets used for broadcast. It is the
// only place connection state is mutated; all methods are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	sessions map[string]Session
	rooms    map[string]map[string]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[string]*Client),
		sessions: make(map[string]Session),
		rooms:    make(map[string]map[string]*Client),
	}
}

// Add registers a connected client with no room membership yet.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.ID] = c
	r.sessions[c.ID] = Session{}
}

// Join places the client in a room and records its display name.
// A client belongs to at most one room: a later join moves it.
func (r *Registry) Join(c *Client, roomCode, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev := r.sessions[c.ID].RoomCode; prev != "" && prev != roomCode {
		r.removeFromRoom(c.ID, prev)
	}

	members, ok := r.rooms[roomCode]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[roomCode] = members
	}
	members[c.ID] = c
	r.sessions[c.ID] = Session{RoomCode: roomCode, DisplayName: displayName}
}

// Remove discards the client and returns the session it held.
func (r *Registry) Remove(c *Client) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[c.ID]
	if !ok {
		return Session{}, false
	}

	if sess.RoomCode != "" {
		r.removeFromRoom(c.ID, sess.RoomCode)
	}
	delete(r.sessions, c.ID)
	delete(r.clients, c.ID)

	return sess, true
}

// Session returns the current session state for a connection ID.
func (r *Registry) Session(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	return sess, ok
}

// RoomSize reports how many connections are currently in a room.
func (r *Registry) RoomSize(roomCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomCode])
}

// BroadcastToRoom delivers an event to every connection in the room.
// excludeID, if non-empty, names a connection to skip (the sender).
func (r *Registry) BroadcastToRoom(roomCode string, event *Event, excludeID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, client := range r.rooms[roomCode] {
		if id == excludeID {
			continue
		}
		send(client, event)
	}
}

// SendTo delivers an event to exactly one connection. Returns false if
// the connection is no longer live; the signaling path treats that as
// a silent no-op.
func (r *Registry) SendTo(id string, event *Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	if !ok {
		return false
	}
	send(client, event)
	return true
}

// caller must hold r.mu
func (r *Registry) removeFromRoom(id, roomCode string) {
	members, ok := r.rooms[roomCode]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(r.rooms, roomCode)
	}
}

func send(client *Client, event *Event) {
	select {
	case client.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
