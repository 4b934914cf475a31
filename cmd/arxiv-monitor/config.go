package main

import (
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/Lukael/arxiv-monitoring-bot/internal/watchlist"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// effectiveConfig is the document printed by the config command.
type effectiveConfig struct {
	Settings       types.Settings   `yaml:"settings"`
	Watchlist      *types.Watchlist `yaml:"watchlist,omitempty"`
	WatchlistError string           `yaml:"watchlist_error,omitempty"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings and watchlist as YAML",
	Long: `Config resolves flags, environment, config file, and secrets the same way
run does and prints the result. Slack credentials are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := effectiveConfig{Settings: cfg.Redacted()}
		if w, err := watchlist.Load(cfg.WatchlistPath); err != nil {
			out.WatchlistError = err.Error()
		} else {
			out.Watchlist = &w
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
