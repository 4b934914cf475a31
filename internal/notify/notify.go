// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify delivers match notifications. Slack is the only real sink;
// without credentials matches are written to the log instead.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// Notifier sends one notification per matched item. A returned error means
// delivery was not confirmed; the caller decides what to do with the item.
type Notifier interface {
	Notify(ctx context.Context, item types.Item) error
}

// Format renders the message text for item:
//
//	[<source>] *<title>*
//	By: <author>
//	<link>
func Format(item types.Item) string {
	return fmt.Sprintf("[%s] *%s*\nBy: %s\n%s", item.SourceName, item.Title, item.Author, item.Link)
}

// New picks the sink from cfg: the bot API when a token and channel are
// set, else the webhook when its URL is set, else the log.
func New(cfg types.SlackConfig, client *httputil.Client, log zerolog.Logger) Notifier {
	switch {
	case cfg.BotToken != "" && cfg.ChannelID != "":
		return &BotNotifier{Client: client, Token: cfg.BotToken, Channel: cfg.ChannelID, APIBase: cfg.APIBase}
	case cfg.WebhookURL != "":
		return &WebhookNotifier{Client: client, URL: cfg.WebhookURL}
	default:
		log.Warn().Msg("no Slack credentials configured; matches will only be logged")
		return &LogNotifier{Log: log}
	}
}

// LogNotifier writes notifications to the logger. It never fails.
type LogNotifier struct {
	Log zerolog.Logger
}

// Notify logs the formatted message.
func (n *LogNotifier) Notify(_ context.Context, item types.Item) error {
	n.Log.Info().Str("id", item.ID).Str("source", item.SourceName).Msg(Format(item))
	return nil
}
