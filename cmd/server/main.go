package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/app"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/config"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/log"
)

var (
	flagConfigPath string
	flagAddr       string
	flagDBPath     string
	flagLogLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "telemed-relay",
		Short:        "Real-time chat relay for telemedicine rooms",
		RunE:         run,
		SilenceUsage: true,
	}

	root.Flags().StringVar(&flagConfigPath, "config", "", "path to config file")
	root.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides config)")
	root.Flags().StringVar(&flagDBPath, "db", "", "SQLite database path (overrides config)")
	root.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	bootLogger := log.New("info")

	cfg, configPath, err := config.Load(bootLogger, flagConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagDBPath != "" {
		cfg.DatabasePath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", configPath).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting telemed relay")
	if err := application.Run(ctx); err != nil {
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
