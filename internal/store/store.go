package store

import (
	"context"
	"errors"
	"time"
)

// Room represents a persisted chat room. Rooms are looked up by their
// unique code; the numeric ID is a storage detail.
type Room struct {
	ID        int64
	Code      string
	Title     *string
	CreatedBy *string
	Metadata  map[string]any
	CreatedAt time.Time
}

// MessageType defines the kind of message content.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeSystem MessageType = "system"
)

// Message represents a persisted chat message. RoomCode is a soft
// reference: no foreign key is enforced against rooms.
type Message struct {
	ID        int64
	RoomCode  string
	Sender    string
	Type      MessageType
	Content   string
	Meta      map[string]any
	CreatedAt time.Time
}

// Sentinel errors returned by store implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCode is returned when a room code is already taken.
	ErrDuplicateCode = errors.New("room code already exists")
)

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new room with the given code. Returns
	// ErrDuplicateCode if the code is already taken.
	CreateRoom(ctx context.Context, code string, title, createdBy *string, metadata map[string]any) (*Room, error)

	// GetRoomByCode retrieves a room by exact code match.
	// Returns ErrNotFound if no room has that code.
	GetRoomByCode(ctx context.Context, code string) (*Room, error)

	// ListRooms lists all rooms, newest first.
	ListRooms(ctx context.Context) ([]*Room, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message, assigning its ID and creation
	// timestamp. CreatedAt is the sole ordering key within a room.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages retrieves a page of messages for a room. Pages are
	// positioned newest-first (offset 0 covers the most recent
	// messages) but each page is returned in chronological order.
	ListMessages(ctx context.Context, roomCode string, limit, offset int) ([]*Message, error)

	// CountMessages returns the total number of messages in a room.
	CountMessages(ctx context.Context, roomCode string) (int64, error)

	// RecentMessages returns the newest limit messages for a room in
	// chronological order (oldest first).
	RecentMessages(ctx context.Context, roomCode string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
