package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/genvr-mcp/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		common.LoadVersionFromFile()
		info := common.Info()
		fmt.Printf("genvr-mcp %s\n", info.Version)
		fmt.Printf("  Build:  %s\n", info.Build)
		fmt.Printf("  Commit: %s\n", info.Commit)
	},
}
