package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/media"
)

// UploadHandlers provides the image upload endpoint. A successful
// upload feeds the relay core: the resulting URL is broadcast to the
// target room as an image message.
type UploadHandlers struct {
	uploader media.Uploader
	sessions *core.SessionHandler
	maxBytes int64
	log      *zerolog.Logger
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(uploader media.Uploader, sessions *core.SessionHandler, maxBytes int64, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{
		uploader: uploader,
		sessions: sessions,
		maxBytes: maxBytes,
		log:      logger,
	}
}

// UploadResponse represents a successful upload response body.
type UploadResponse struct {
	URL  string         `json:"url"`
	Meta map[string]any `json:"meta"`
}

// UploadImage uploads a multipart image to the media host and, when a
// room is named, broadcasts the URL to that room.
// POST /api/upload/image (fields: image, room, username)
func (h *UploadHandlers) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}
	defer file.Close()

	if h.maxBytes > 0 && header.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "File too large"})
		return
	}

	result, err := h.uploader.Upload(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("image upload failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload failed"})
		return
	}

	meta := result.Meta()

	if room := c.PostForm("room"); room != "" {
		h.sessions.BroadcastImage(room, c.PostForm("username"), result.URL, meta)
	}

	c.JSON(http.StatusOK, UploadResponse{URL: result.URL, Meta: meta})
}
