// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-monitor CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lukael/arxiv-monitoring-bot/internal/logging"
	"github.com/Lukael/arxiv-monitoring-bot/internal/secrets"
	"github.com/Lukael/arxiv-monitoring-bot/internal/settings"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the explicit configuration built in PersistentPreRunE.
	cfg types.Settings
	// logger is configured from cfg before any subcommand runs.
	logger zerolog.Logger
)

// rootCmd is the base command for the arxiv-monitor CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-monitor",
	Short: "Watch arXiv feeds and works-search APIs and post matches to Slack",
	Long: `arxiv-monitor polls arXiv RSS/Atom feeds and keyword searches (Crossref,
the arXiv API, OpenAlex) on a fixed interval or cron schedule. Items whose
title, summary, or authors match the watchlist are posted to Slack once;
a local SQLite seen-set prevents repeats across cycles and restarts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		boot := logging.New(viper.GetString(settings.KeyLogLevel), logging.Format(viper.GetString(settings.KeyLogFormat)), os.Stderr)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, boot)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			boot.Debug().Strs("keys", keys).Msg("loaded secrets")
		}

		cfg, err = settings.Load(viper.GetViper(), s)
		if err != nil {
			return err
		}
		logger = logging.New(cfg.LogLevel, logging.Format(cfg.LogFormat), os.Stderr)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("path", f).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./arxiv-monitor.yaml or ~/.config/arxiv-monitor/arxiv-monitor.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of secret files (slack-bot-token, slack-webhook-url, ...)")
	pf.String("watchlist", settings.DefaultWatchlist, "watchlist file (JSON or YAML)")
	pf.String("db", settings.DefaultStorePath, "seen-set SQLite database")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")

	viper.BindPFlag(settings.KeyWatchlist, pf.Lookup("watchlist"))
	viper.BindPFlag(settings.KeyStorePath, pf.Lookup("db"))
	viper.BindPFlag(settings.KeyLogLevel, pf.Lookup("log-level"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	settings.Configure(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-monitor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-monitor"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config file:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
