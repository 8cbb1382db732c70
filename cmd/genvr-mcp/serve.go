package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/genvr-mcp/internal/config"
	"github.com/bobmcallan/genvr-mcp/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over streamable HTTP and SSE",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		config.ApplyFlagOverrides(cfg, servePort, serveHost)

		application, logger, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		logger.Info().
			Int("port", cfg.Server.Port).
			Str("host", cfg.Server.Host).
			Str("environment", cfg.Environment).
			Str("config_files", fmt.Sprintf("%v", configFiles)).
			Msg("configuration loaded")

		srv := server.New(application)

		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.Start()
		}()

		select {
		case err := <-errChan:
			return err
		case <-cmd.Context().Done():
			logger.Info().Msg("shutdown signal received")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
			return err
		}

		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "server port (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "server host (overrides config)")
}
