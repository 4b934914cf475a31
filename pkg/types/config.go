// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every outbound call.
type HTTPConfig struct {
	// Timeout bounds each request so a stuck provider cannot block a cycle.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-monitor/0.1 (mailto:you@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429. Zero disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// HostGap is the minimum gap between two requests to the same host.
	HostGap time.Duration `json:"host_gap" yaml:"host_gap"`
}

// StoreConfig locates the seen-set database.
type StoreConfig struct {
	// Path is the SQLite file holding seen ids (default "seen.db").
	Path string `json:"path" yaml:"path"`
}

// PollConfig controls cycle pacing.
type PollConfig struct {
	// Interval separates full cycles (default 600s, env POLL_INTERVAL in seconds).
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Schedule is an optional cron expression; when set it replaces Interval.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`

	// SourceDelay is slept between two sources within a cycle (default 3s).
	SourceDelay time.Duration `json:"source_delay" yaml:"source_delay"`

	// Once runs a single cycle and exits.
	Once bool `json:"once" yaml:"once"`

	// DryRun reports matches without notifying or persisting, for one cycle.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// SlackConfig holds notification sink credentials. Either BotToken and
// ChannelID (chat.postMessage) or WebhookURL must be set for delivery;
// otherwise matches are only logged.
type SlackConfig struct {
	BotToken   string `json:"bot_token,omitempty" yaml:"bot_token,omitempty"`
	ChannelID  string `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`

	// APIBase is the Slack Web API base URL (default "https://slack.com/api").
	APIBase string `json:"api_base" yaml:"api_base"`
}

// Configured reports whether any delivery channel is available.
func (s SlackConfig) Configured() bool {
	return (s.BotToken != "" && s.ChannelID != "") || s.WebhookURL != ""
}

// SearchConfig holds defaults for keyword search sources.
type SearchConfig struct {
	// MaxRows is the default per-keyword row cap (default 100).
	MaxRows int `json:"max_rows" yaml:"max_rows"`

	// PageSize is the number of rows requested per page (default 50).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Lookback is the cutoff window used when a search has no Since date
	// (default 7 days).
	Lookback time.Duration `json:"lookback" yaml:"lookback"`

	// Mailto is sent to Crossref and OpenAlex for polite-pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// SemanticScholarKey is sent as x-api-key; searches work without it at
	// a lower rate limit.
	SemanticScholarKey string `json:"semantic_scholar_key,omitempty" yaml:"semantic_scholar_key,omitempty"`
}

// Settings is the explicit process configuration, built once at startup
// and passed by value into the orchestrator, sources, and notifier.
type Settings struct {
	// WatchlistPath is the JSON filter config reloaded every cycle.
	WatchlistPath string `json:"watchlist_path" yaml:"watchlist_path"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LogFormat is "console" (default) or "json".
	LogFormat string `json:"log_format" yaml:"log_format"`

	Store  StoreConfig  `json:"store" yaml:"store"`
	Poll   PollConfig   `json:"poll" yaml:"poll"`
	HTTP   HTTPConfig   `json:"http" yaml:"http"`
	Slack  SlackConfig  `json:"slack" yaml:"slack"`
	Search SearchConfig `json:"search" yaml:"search"`
}

// Redacted returns a copy of s with credentials masked, for display.
func (s Settings) Redacted() Settings {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "****"
	}
	s.Slack.BotToken = mask(s.Slack.BotToken)
	s.Slack.WebhookURL = mask(s.Slack.WebhookURL)
	s.Search.SemanticScholarKey = mask(s.Search.SemanticScholarKey)
	return s
}
