// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

const defaultSlackAPIBase = "https://slack.com/api"

// BotNotifier posts through the Slack Web API chat.postMessage method.
type BotNotifier struct {
	Client  *httputil.Client
	Token   string
	Channel string
	// APIBase defaults to https://slack.com/api.
	APIBase string
}

// Notify posts the message. Slack reports most failures with HTTP 200 and
// "ok": false, so both the status and the body are checked.
func (n *BotNotifier) Notify(ctx context.Context, item types.Item) error {
	base := n.APIBase
	if base == "" {
		base = defaultSlackAPIBase
	}
	payload := map[string]string{"channel": n.Channel, "text": Format(item)}
	header := http.Header{"Authorization": {"Bearer " + n.Token}}

	resp, err := n.Client.PostJSON(ctx, strings.TrimRight(base, "/")+"/chat.postMessage", payload, header)
	if err != nil {
		return fmt.Errorf("slack chat.postMessage: %w", err)
	}
	defer resp.Body.Close()

	var ack struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("slack chat.postMessage: parsing response: %w", err)
	}
	if !ack.OK {
		return fmt.Errorf("slack chat.postMessage: %s", ack.Error)
	}
	return nil
}

// WebhookNotifier posts to a Slack incoming webhook.
type WebhookNotifier struct {
	Client *httputil.Client
	URL    string
}

// Notify posts the message. Incoming webhooks answer a plain "ok" body on
// success.
func (n *WebhookNotifier) Notify(ctx context.Context, item types.Item) error {
	resp, err := n.Client.PostJSON(ctx, n.URL, map[string]string{"text": Format(item)}, nil)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("slack webhook: reading response: %w", err)
	}
	if got := strings.TrimSpace(string(body)); got != "ok" {
		return fmt.Errorf("slack webhook: unexpected response %q", got)
	}
	return nil
}
