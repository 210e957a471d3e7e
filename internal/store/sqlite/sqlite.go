package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	code       TEXT NOT NULL UNIQUE,
	title      TEXT,
	created_by TEXT,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_code  TEXT NOT NULL,
	sender     TEXT NOT NULL DEFAULT 'anonymous',
	type       TEXT NOT NULL DEFAULT 'text',
	content    TEXT NOT NULL,
	meta       TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_code, created_at);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RoomStore implementation ====

// CreateRoom creates a new room with the given code.
func (s *SQLiteStore) CreateRoom(ctx context.Context, code string, title, createdBy *string, metadata map[string]any) (*store.Room, error) {
	meta, err := encodeMeta(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	query := `
		INSERT INTO rooms (code, title, created_by, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, code, title, createdBy, meta, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getRoomByID(ctx, id)
}

func (s *SQLiteStore) getRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `
		SELECT id, code, title, created_by, metadata, created_at
		FROM rooms
		WHERE id = ?
	`
	return scanRoom(s.db.QueryRowContext(ctx, query, id))
}

// GetRoomByCode retrieves a room by exact code match.
func (s *SQLiteStore) GetRoomByCode(ctx context.Context, code string) (*store.Room, error) {
	query := `
		SELECT id, code, title, created_by, metadata, created_at
		FROM rooms
		WHERE code = ?
	`
	return scanRoom(s.db.QueryRowContext(ctx, query, code))
}

// ListRooms lists all rooms, newest first.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, code, title, created_by, metadata, created_at
		FROM rooms
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message, assigning its ID and creation timestamp.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg.Sender == "" {
		msg.Sender = "anonymous"
	}
	if msg.Type == "" {
		msg.Type = store.MessageTypeText
	}
	if msg.Meta == nil {
		msg.Meta = map[string]any{}
	}
	msg.CreatedAt = time.Now().UTC()

	meta, err := encodeMeta(msg.Meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	query := `
		INSERT INTO messages (room_code, sender, type, content, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.RoomCode, msg.Sender, msg.Type, msg.Content, meta, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// ListMessages retrieves a newest-first page of messages, returned in
// chronological order within the page.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomCode string, limit, offset int) ([]*store.Message, error) {
	query := `
		SELECT id, room_code, sender, type, content, meta, created_at
		FROM messages
		WHERE room_code = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomCode, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	reverse(messages)

	return messages, nil
}

// CountMessages returns the total number of messages in a room.
func (s *SQLiteStore) CountMessages(ctx context.Context, roomCode string) (int64, error) {
	query := `SELECT COUNT(*) FROM messages WHERE room_code = ?`

	var total int64
	if err := s.db.QueryRowContext(ctx, query, roomCode).Scan(&total); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}

	return total, nil
}

// RecentMessages returns the newest limit messages in chronological order.
func (s *SQLiteStore) RecentMessages(ctx context.Context, roomCode string, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, room_code, sender, type, content, meta, created_at
		FROM messages
		WHERE room_code = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	reverse(messages)

	return messages, nil
}

// reverse flips a newest-first result set into chronological order.
func reverse(messages []*store.Message) {
	for i := 0; i < len(messages)/2; i++ {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}
}

// ==== helpers ====

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*store.Room, error) {
	var room store.Room
	var title, createdBy sql.NullString
	var meta string
	err := row.Scan(
		&room.ID,
		&room.Code,
		&title,
		&createdBy,
		&meta,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}

	if title.Valid {
		room.Title = &title.String
	}
	if createdBy.Valid {
		room.CreatedBy = &createdBy.String
	}
	if room.Metadata, err = decodeMeta(meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return &room, nil
}

func collectMessages(rows *sql.Rows) ([]*store.Message, error) {
	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		var meta string
		if err := rows.Scan(&msg.ID, &msg.RoomCode, &msg.Sender, &msg.Type, &msg.Content, &meta, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var err error
		if msg.Meta, err = decodeMeta(meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

func encodeMeta(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMeta(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
