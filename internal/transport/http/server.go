package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/config"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/media"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
)

// NewServer builds the HTTP server: REST API, WebSocket endpoint,
// health check.
func NewServer(sessions *core.SessionHandler, st store.Store, uploader media.Uploader, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		LoggerMiddleware(logger),
		SecurityHeadersMiddleware(),
		CORSMiddleware(),
		RateLimitMiddleware(newRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)),
	)

	rooms := NewRoomHandlers(st, logger)
	router.POST("/api/rooms/create", rooms.CreateRoom)
	router.POST("/api/rooms/autocreate", rooms.AutoCreateRoom)
	router.GET("/api/rooms/list", rooms.ListRooms)
	router.GET("/api/rooms/:code", rooms.GetRoom)

	messages := NewMessageHandlers(st, logger)
	router.GET("/api/messages/:roomCode", messages.History)

	uploads := NewUploadHandlers(uploader, sessions, cfg.Upload.MaxBytes, logger)
	router.POST("/api/upload/image", uploads.UploadImage)

	router.GET("/health", healthHandler)

	// The WebSocket endpoint bypasses gin: its response writer refuses
	// to hijack the connection once the 101 handshake is written, so
	// /ws mounts on a plain mux in front of the router.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(sessions, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}
