package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of arxiv-monitor",
	// The version needs no settings, secrets, or config file.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "arxiv-monitor %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
