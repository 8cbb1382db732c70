package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/genvr-mcp/internal/app"
	"github.com/bobmcallan/genvr-mcp/internal/common"
	"github.com/bobmcallan/genvr-mcp/internal/config"
)

var configFiles []string

var rootCmd = &cobra.Command{
	Use:   "genvr-mcp",
	Short: "MCP server exposing GenVR generative models as tools",
	Long: `genvr-mcp publishes one MCP tool per GenVR model in the catalog.

Each tool call submits a generation job to the GenVR API, polls until the
job finishes and returns the result to the MCP client. The server speaks
streamable HTTP and SSE (serve) or stdio (stdio).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(
		&configFiles, "config", "c", nil, "configuration file path (can be specified multiple times)",
	)

	rootCmd.AddCommand(serveCmd, stdioCmd, toolsCmd, callCmd, versionCmd)
}

// loadConfig reads configuration files, auto-discovering one when none is given.
func loadConfig() (*config.Config, error) {
	common.LoadVersionFromFile()

	paths := configFiles
	if len(paths) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newApp builds the logger and application from cfg.
func newApp(cfg *config.Config) (*app.App, *common.Logger, error) {
	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "Configuration error, mandatory fields are missing or invalid:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		fmt.Fprintln(os.Stderr, "Values can be set via TOML file, GENVR_* environment variables, or CLI flags.")
		return nil, nil, fmt.Errorf("invalid configuration")
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to initialize application")
		return nil, nil, err
	}
	return application, logger, nil
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried before the working directory.
func configSearchPaths() []string {
	candidates := []string{
		"genvr-mcp.toml",
		filepath.Join("config", "genvr-mcp.toml"),
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "genvr-mcp.toml"),
		filepath.Join(binDir, "config", "genvr-mcp.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
