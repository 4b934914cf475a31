// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

const errorBodyLimit = 512

// StatusError reports a non-2xx response. Body holds the first bytes of the
// response for diagnostics.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client wraps *http.Client with the user agent, host pacing, and retry
// policy from HTTPConfig.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	MaxRetries int
	Limiter    *HostLimiter
}

// NewClient builds a Client with an explicit request timeout.
func NewClient(cfg types.HTTPConfig) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Limiter:    NewHostLimiter(cfg.HostGap),
	}
}

// Do sends req after waiting on the host limiter. Non-2xx responses are
// closed and returned as *StatusError.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.Limiter.Wait(ctx, req.URL.String()); err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{
			URL:        redactURL(req.URL.String()),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

// Get issues a GET request with the given Accept header.
func (c *Client) Get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return c.Do(ctx, req)
}

// PostJSON marshals payload and POSTs it to url with the extra headers.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, header http.Header) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.Do(ctx, req)
}

// redactURL drops the path of Slack webhook URLs, which embed the secret.
func redactURL(u string) string {
	const hooks = "hooks.slack.com/"
	if i := strings.Index(u, hooks); i >= 0 {
		return u[:i+len(hooks)] + "..."
	}
	return u
}
