package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP over stdin/stdout",
	Long: `Serve MCP over stdin/stdout for clients that launch the server as a
subprocess. Logs go to stderr or the log file; stdout carries JSON-RPC only.
Credentials come from tool arguments or the [credentials] config section.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		application, logger, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		logger.Info().Int("tools", application.Registry.Len()).Msg("serving MCP over stdio")

		return server.ServeStdio(application.MCPServer)
	},
}
