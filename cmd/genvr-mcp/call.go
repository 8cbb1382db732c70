package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var callArgs string

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke a generation tool once and print the result",
	Example: `  genvr-mcp call generate_image_flux_dev --args '{"prompt":"a lighthouse at dusk"}'`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var toolArgs map[string]any
		if callArgs != "" {
			if err := json.Unmarshal([]byte(callArgs), &toolArgs); err != nil {
				return fmt.Errorf("--args must be a JSON object: %w", err)
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		application, _, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		result := application.Registry.Call(cmd.Context(), args[0], toolArgs)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if result.IsError {
			return fmt.Errorf("tool %s returned an error", args[0])
		}
		return nil
	},
}

func init() {
	callCmd.Flags().StringVarP(&callArgs, "args", "a", "", "tool arguments as a JSON object")
}
