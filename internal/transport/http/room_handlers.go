package http

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
)

// autoCreateAttempts bounds collision retries for generated room codes.
const autoCreateAttempts = 5

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	CreatedBy string `json:"createdBy"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Code      string         `json:"code"`
	Title     *string        `json:"title"`
	CreatedBy *string        `json:"createdBy"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"createdAt"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func roomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		Code:      room.Code,
		Title:     room.Title,
		CreatedBy: room.CreatedBy,
		Metadata:  room.Metadata,
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
	}
}

// CreateRoom handles room creation, generating a friendly code when
// none is supplied.
// POST /api/rooms/create
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	code := req.Code
	if code != "" {
		if !core.IsValidRoomCode(code) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid room code format."})
			return
		}
	} else {
		// Short friendly code from the first uuid segment.
		code = "rm-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}

	var title, createdBy *string
	if req.Title != "" {
		title = &req.Title
	}
	if req.CreatedBy != "" {
		createdBy = &req.CreatedBy
	}

	room, err := h.store.CreateRoom(c.Request.Context(), code, title, createdBy, nil)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateCode) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Room code already exists."})
			return
		}
		h.log.Error().Err(err).Str("room_code", code).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
		return
	}

	h.log.Info().Str("room_code", room.Code).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{"room": roomResponse(room)})
}

// AutoCreateRoom creates a telemedicine room with a generated
// telemed-<digits> code, retrying a bounded number of times on
// collision.
// POST /api/rooms/autocreate
func (h *RoomHandlers) AutoCreateRoom(c *gin.Context) {
	title := "telemed"

	for i := 0; i < autoCreateAttempts; i++ {
		// Random 4-5 digit suffix.
		code := fmt.Sprintf("telemed-%d", 1000+rand.Intn(90000))

		room, err := h.store.CreateRoom(c.Request.Context(), code, &title, nil, nil)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateCode) {
				continue
			}
			h.log.Error().Err(err).Str("room_code", code).Msg("failed to autocreate room")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
			return
		}

		h.log.Info().Str("room_code", room.Code).Msg("room autocreated")
		c.JSON(http.StatusCreated, gin.H{"room": roomResponse(room)})
		return
	}

	c.JSON(http.StatusConflict, ErrorResponse{Error: "Room code already exists. Please try again."})
}

// ListRooms lists all rooms, newest first.
// GET /api/rooms/list
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomResponse(room))
	}

	c.JSON(http.StatusOK, gin.H{"rooms": response})
}

// GetRoom retrieves a room by code.
// GET /api/rooms/:code
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	code := c.Param("code")
	if !core.IsValidRoomCode(code) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid room code format."})
		return
	}

	room, err := h.store.GetRoomByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Room not found."})
			return
		}
		h.log.Error().Err(err).Str("room_code", code).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": roomResponse(room)})
}
