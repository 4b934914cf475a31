// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const arxivAbsBase = "https://arxiv.org/abs/"

// ArxivProvider queries the arXiv API for the newest submissions matching
// a keyword.
type ArxivProvider struct {
	Client   *httputil.Client
	PageSize int
}

// Name returns the provider identifier.
func (p *ArxivProvider) Name() string { return types.ProviderArxiv }

// Search pages through submissions sorted newest first and stops at
// maxRows, a short page, or the first entry older than since.
func (p *ArxivProvider) Search(ctx context.Context, keyword string, since time.Time, maxRows int) ([]types.Item, error) {
	q := buildArxivQuery(keyword)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var items []types.Item
	for start := 0; start < maxRows; {
		rows := min(pageSize, maxRows-start)
		entries, err := p.fetchPage(ctx, q, start, rows)
		if err != nil {
			return nil, err
		}

		older := false
		for _, e := range entries {
			it, ok := arxivItem(e)
			if !ok {
				continue
			}
			if !it.Published.IsZero() && it.Published.Before(since) {
				older = true
				continue
			}
			items = append(items, it)
		}

		start += len(entries)
		if len(entries) < rows || older {
			break
		}
	}
	return items, nil
}

func (p *ArxivProvider) fetchPage(ctx context.Context, q string, start, rows int) ([]*gofeed.Item, error) {
	params := url.Values{
		"search_query": {q},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
		"start":        {strconv.Itoa(start)},
		"max_results":  {strconv.Itoa(rows)},
	}
	resp, err := p.Client.Get(ctx, arxivAPIBase+"?"+params.Encode(), "application/atom+xml")
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return feed.Items, nil
}

// buildArxivQuery turns a keyword into an all-fields query; multi-word
// keywords are searched as a phrase.
func buildArxivQuery(keyword string) string {
	terms := strings.Fields(keyword)
	switch len(terms) {
	case 0:
		return ""
	case 1:
		return "all:" + terms[0]
	default:
		return `all:"` + strings.Join(terms, " ") + `"`
	}
}

func arxivItem(e *gofeed.Item) (types.Item, bool) {
	id := extractArxivID(e.GUID)
	if id == "" {
		return types.Item{}, false
	}
	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if a != nil {
			names = append(names, a.Name)
		}
	}

	it := types.Item{
		ID:         id,
		Title:      collapseSpace(e.Title),
		Summary:    collapseSpace(e.Description),
		Author:     joinAuthors(names),
		Link:       arxivAbsBase + id,
		SourceName: types.ProviderArxiv,
	}
	if e.PublishedParsed != nil {
		it.Published = e.PublishedParsed.UTC()
	}
	return it, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
