// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

const feedAccept = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"

// FeedSource polls one RSS or Atom feed URL.
type FeedSource struct {
	URL string

	name   string
	client *httputil.Client
	strip  *bluemonday.Policy
}

// NewFeedSource returns a feed adapter for rawURL.
func NewFeedSource(rawURL string, client *httputil.Client) *FeedSource {
	return &FeedSource{
		URL:    rawURL,
		name:   FeedName(rawURL),
		client: client,
		strip:  bluemonday.StrictPolicy(),
	}
}

// Name returns the feed's display name, e.g. "cs.LG".
func (f *FeedSource) Name() string { return f.name }

// Fetch downloads and parses the feed. Every entry is returned; filtering
// is left to the orchestrator.
func (f *FeedSource) Fetch(ctx context.Context, _ types.Filters) ([]types.Item, error) {
	resp, err := f.client.Get(ctx, f.URL, feedAccept)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", f.URL, err)
	}

	items := make([]types.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if it, ok := f.toItem(entry); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func (f *FeedSource) toItem(entry *gofeed.Item) (types.Item, bool) {
	id := strings.TrimSpace(entry.GUID)
	link := strings.TrimSpace(entry.Link)
	if id == "" {
		id = link
	}
	if id == "" {
		return types.Item{}, false
	}

	summary := entry.Description
	if strings.TrimSpace(summary) == "" {
		summary = entry.Content
	}

	it := types.Item{
		ID:         id,
		Title:      collapseSpace(entry.Title),
		Summary:    f.stripHTML(summary),
		Author:     feedAuthor(entry),
		Link:       link,
		SourceName: f.name,
	}
	switch {
	case entry.PublishedParsed != nil:
		it.Published = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		it.Published = entry.UpdatedParsed.UTC()
	}
	return it, true
}

func (f *FeedSource) stripHTML(s string) string {
	return collapseSpace(html.UnescapeString(f.strip.Sanitize(s)))
}

func feedAuthor(entry *gofeed.Item) string {
	names := make([]string, 0, len(entry.Authors))
	for _, p := range entry.Authors {
		if p != nil {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 && entry.Author != nil {
		names = append(names, entry.Author.Name)
	}
	return joinAuthors(names)
}

// FeedName derives a short source name from a feed URL: the last path
// segment with any trailing slash ignored, or the host when the path is
// empty. Unparsable URLs are returned unchanged.
func FeedName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return u.Host
	}
	return path.Base(p)
}
