package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/config"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/media"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store/sqlite"
	transporthttp "github.com/Dayvhiid/HMS-Telemedicine-API/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. A store
// that cannot be reached is fatal: the relay has no useful degraded
// mode without persistence.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	registry := core.NewRegistry()
	sessions := core.NewSessionHandler(registry, st, logger)

	var uploader media.Uploader = media.Disabled{}
	if cfg.Upload.CloudName != "" {
		uploader, err = media.NewCloudinaryUploader(cfg.Upload.CloudName, cfg.Upload.APIKey, cfg.Upload.APISecret, cfg.Upload.Folder)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init uploader: %w", err)
		}
		logger.Info().Str("folder", cfg.Upload.Folder).Msg("media uploads enabled")
	} else {
		logger.Warn().Msg("media uploads disabled: no cloud name configured")
	}

	server := transporthttp.NewServer(sessions, st, uploader, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
