package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// MessageHandlers provides HTTP handlers for message history endpoints.
type MessageHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// HistoryMeta describes the pagination of a history response.
type HistoryMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        int64          `json:"id"`
	RoomCode  string         `json:"roomCode"`
	Sender    string         `json:"sender"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Meta      map[string]any `json:"meta"`
	CreatedAt string         `json:"createdAt"`
}

// History returns a page of a room's messages in chronological order.
// Page 1 holds the most recent messages.
// GET /api/messages/:roomCode?page&limit
func (h *MessageHandlers) History(c *gin.Context) {
	roomCode := c.Param("roomCode")
	if !core.IsValidRoomCode(roomCode) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid room code."})
		return
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", defaultPageLimit)
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	ctx := c.Request.Context()

	total, err := h.store.CountMessages(ctx, roomCode)
	if err != nil {
		h.log.Error().Err(err).Str("room_code", roomCode).Msg("failed to count messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
		return
	}

	messages, err := h.store.ListMessages(ctx, roomCode, limit, (page-1)*limit)
	if err != nil {
		h.log.Error().Err(err).Str("room_code", roomCode).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
		return
	}

	data := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		data = append(data, MessageResponse{
			ID:        msg.ID,
			RoomCode:  msg.RoomCode,
			Sender:    msg.Sender,
			Type:      string(msg.Type),
			Content:   msg.Content,
			Meta:      msg.Meta,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"meta": HistoryMeta{Total: total, Page: page, Limit: limit},
		"data": data,
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
