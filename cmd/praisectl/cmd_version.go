package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saucecodee/praise/internal/platform/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	// No config needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
	},
}
