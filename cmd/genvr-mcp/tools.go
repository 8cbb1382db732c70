package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools generated from the model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		application, _, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOOL\tCATEGORY\tSUBCATEGORY")
		for _, def := range application.Registry.Definitions() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", def.Tool.Name, def.Category, def.Subcategory)
		}
		return w.Flush()
	},
}
