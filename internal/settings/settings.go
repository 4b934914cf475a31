// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package settings turns viper state (config file, environment, bound
// flags) and the secrets directory into an explicit types.Settings value.
// Nothing downstream reads viper directly.
package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/Lukael/arxiv-monitoring-bot/internal/secrets"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// EnvPrefix is prepended to every setting key when read from the
// environment, e.g. ARXIV_MONITOR_STORE_PATH.
const EnvPrefix = "ARXIV_MONITOR"

// Setting keys.
const (
	KeyWatchlist      = "watchlist"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyStorePath      = "store.path"
	KeyPollInterval   = "poll.interval"
	KeyPollSchedule   = "poll.schedule"
	KeySourceDelay    = "poll.source_delay"
	KeyOnce           = "poll.once"
	KeyDryRun         = "poll.dry_run"
	KeyHTTPTimeout    = "http.timeout"
	KeyUserAgent      = "http.user_agent"
	KeyMaxRetries     = "http.max_retries"
	KeyHostGap        = "http.host_gap"
	KeySlackToken     = "slack.bot_token"
	KeySlackChannel   = "slack.channel_id"
	KeySlackWebhook   = "slack.webhook_url"
	KeySlackAPIBase   = "slack.api_base"
	KeySearchMaxRows  = "search.max_rows"
	KeySearchPageSize = "search.page_size"
	KeySearchLookback = "search.lookback"
	KeySearchMailto   = "search.mailto"
	KeySemanticKey    = "search.semantic_scholar_key"
)

// Defaults.
const (
	DefaultWatchlist    = "config.json"
	DefaultStorePath    = "seen.db"
	DefaultInterval     = 600 * time.Second
	DefaultSourceDelay  = 3 * time.Second
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultHostGap      = 1 * time.Second
	DefaultSlackAPIBase = "https://slack.com/api"
	DefaultMaxRows      = 100
	DefaultPageSize     = 50
	DefaultLookback     = 7 * 24 * time.Hour
	DefaultUserAgent    = "arxiv-monitor/0.1"

	// maxPageSize is the largest page Crossref accepts.
	maxPageSize = 1000
)

// Configure installs defaults and environment bindings on v. The plain
// SLACK_* and POLL_INTERVAL variables are honoured alongside the prefixed
// forms.
func Configure(v *viper.Viper) {
	v.SetDefault(KeyWatchlist, DefaultWatchlist)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyStorePath, DefaultStorePath)
	v.SetDefault(KeyPollInterval, DefaultInterval.String())
	v.SetDefault(KeyPollSchedule, "")
	v.SetDefault(KeySourceDelay, DefaultSourceDelay.String())
	v.SetDefault(KeyOnce, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout.String())
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyMaxRetries, 0)
	v.SetDefault(KeyHostGap, DefaultHostGap.String())
	v.SetDefault(KeySlackAPIBase, DefaultSlackAPIBase)
	v.SetDefault(KeySearchMaxRows, DefaultMaxRows)
	v.SetDefault(KeySearchPageSize, DefaultPageSize)
	v.SetDefault(KeySearchLookback, DefaultLookback.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv(KeySlackToken, EnvPrefix+"_SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN")
	v.BindEnv(KeySlackChannel, EnvPrefix+"_SLACK_CHANNEL_ID", "SLACK_CHANNEL_ID")
	v.BindEnv(KeySlackWebhook, EnvPrefix+"_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL")
	v.BindEnv(KeyPollInterval, EnvPrefix+"_POLL_INTERVAL", "POLL_INTERVAL")
	v.BindEnv(KeySemanticKey, EnvPrefix+"_SEARCH_SEMANTIC_SCHOLAR_KEY", "SEMANTIC_SCHOLAR_API_KEY")
}

// Load builds Settings from v and fills empty Slack and search contact
// fields from secrets. Explicit values always win over secret files.
func Load(v *viper.Viper, secretValues map[string]string) (types.Settings, error) {
	var errs []string
	dur := func(key string) time.Duration {
		d, err := ParseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}

	s := types.Settings{
		WatchlistPath: strings.TrimSpace(v.GetString(KeyWatchlist)),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		Store:         types.StoreConfig{Path: strings.TrimSpace(v.GetString(KeyStorePath))},
		Poll: types.PollConfig{
			Interval:    dur(KeyPollInterval),
			Schedule:    strings.TrimSpace(v.GetString(KeyPollSchedule)),
			SourceDelay: dur(KeySourceDelay),
			Once:        v.GetBool(KeyOnce),
			DryRun:      v.GetBool(KeyDryRun),
		},
		HTTP: types.HTTPConfig{
			Timeout:    dur(KeyHTTPTimeout),
			UserAgent:  v.GetString(KeyUserAgent),
			MaxRetries: v.GetInt(KeyMaxRetries),
			HostGap:    dur(KeyHostGap),
		},
		Slack: types.SlackConfig{
			BotToken:   withSecret(v.GetString(KeySlackToken), secretValues, secrets.SlackBotToken),
			ChannelID:  withSecret(v.GetString(KeySlackChannel), secretValues, secrets.SlackChannelID),
			WebhookURL: withSecret(v.GetString(KeySlackWebhook), secretValues, secrets.SlackWebhookURL),
			APIBase:    strings.TrimRight(strings.TrimSpace(v.GetString(KeySlackAPIBase)), "/"),
		},
		Search: types.SearchConfig{
			MaxRows:  v.GetInt(KeySearchMaxRows),
			PageSize: v.GetInt(KeySearchPageSize),
			Lookback: dur(KeySearchLookback),
			Mailto:   withSecret(v.GetString(KeySearchMailto), secretValues, secrets.CrossrefMailto),

			SemanticScholarKey: withSecret(v.GetString(KeySemanticKey), secretValues, secrets.SemanticScholarAPIKey),
		},
	}
	if len(errs) > 0 {
		return types.Settings{}, fmt.Errorf("invalid settings: %s", strings.Join(errs, "; "))
	}
	if err := Validate(s); err != nil {
		return types.Settings{}, err
	}
	return s, nil
}

// Validate checks s for values the poller cannot run with. All problems
// are reported together.
func Validate(s types.Settings) error {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	if s.WatchlistPath == "" {
		add("%s must not be empty", KeyWatchlist)
	}
	if s.Store.Path == "" {
		add("%s must not be empty", KeyStorePath)
	}
	if s.Poll.Schedule != "" {
		if _, err := cron.ParseStandard(s.Poll.Schedule); err != nil {
			add("%s %q: %v", KeyPollSchedule, s.Poll.Schedule, err)
		}
	} else if s.Poll.Interval <= 0 {
		add("%s must be positive", KeyPollInterval)
	}
	if s.Poll.SourceDelay < 0 {
		add("%s must not be negative", KeySourceDelay)
	}
	if s.HTTP.Timeout <= 0 {
		add("%s must be positive", KeyHTTPTimeout)
	}
	if s.HTTP.MaxRetries < 0 {
		add("%s must not be negative", KeyMaxRetries)
	}
	if s.HTTP.HostGap < 0 {
		add("%s must not be negative", KeyHostGap)
	}
	if s.Search.MaxRows <= 0 {
		add("%s must be positive", KeySearchMaxRows)
	}
	if s.Search.PageSize <= 0 || s.Search.PageSize > maxPageSize {
		add("%s must be between 1 and %d", KeySearchPageSize, maxPageSize)
	}
	if s.Search.Lookback <= 0 {
		add("%s must be positive", KeySearchLookback)
	}
	if s.Slack.BotToken != "" && s.Slack.ChannelID == "" {
		add("%s is set but %s is empty", KeySlackToken, KeySlackChannel)
	}
	if s.Slack.WebhookURL != "" && !isHTTPURL(s.Slack.WebhookURL) {
		add("%s is not an http(s) URL", KeySlackWebhook)
	}
	if !isHTTPURL(s.Slack.APIBase) {
		add("%s is not an http(s) URL", KeySlackAPIBase)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		add("%s must be console or json", KeyLogFormat)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseDuration accepts Go duration strings ("90s", "10m") and bare
// integers, which are read as seconds to match POLL_INTERVAL.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func withSecret(explicit string, secretValues map[string]string, key string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	return secretValues[key]
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
