// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

const doiBase = "https://doi.org/"

// CrossrefProvider searches Crossref works newest first.
type CrossrefProvider struct {
	Client *httputil.Client
	// Mailto is sent for polite pool access.
	Mailto string
	// PageSize is the rows requested per page.
	PageSize int
}

// Name returns the provider identifier.
func (p *CrossrefProvider) Name() string { return types.ProviderCrossref }

// Search pages through Crossref results for keyword until maxRows rows have
// been read, a short page arrives, or total-results is exhausted.
func (p *CrossrefProvider) Search(ctx context.Context, keyword string, since time.Time, maxRows int) ([]types.Item, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var items []types.Item
	for offset := 0; offset < maxRows; {
		rows := min(pageSize, maxRows-offset)
		page, total, err := p.fetchPage(ctx, keyword, since, rows, offset)
		if err != nil {
			return nil, err
		}
		for _, w := range page {
			if it, ok := w.toItem(); ok {
				items = append(items, it)
			}
		}

		offset += len(page)
		if len(page) < rows || offset >= total {
			break
		}
	}
	return items, nil
}

func (p *CrossrefProvider) fetchPage(ctx context.Context, keyword string, since time.Time, rows, offset int) ([]crossrefWork, int, error) {
	params := url.Values{
		"query":  {keyword},
		"sort":   {"published"},
		"order":  {"desc"},
		"rows":   {strconv.Itoa(rows)},
		"offset": {strconv.Itoa(offset)},
		"filter": {"from-pub-date:" + since.Format(dateLayout)},
	}
	if p.Mailto != "" {
		params.Set("mailto", p.Mailto)
	}

	resp, err := p.Client.Get(ctx, crossrefAPIBase+"?"+params.Encode(), "application/json")
	if err != nil {
		return nil, 0, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, 0, fmt.Errorf("parsing Crossref response: %w", err)
	}
	if cr.Status != "ok" {
		return nil, 0, fmt.Errorf("Crossref API returned status %q", cr.Status)
	}
	return cr.Message.Items, cr.Message.TotalResults, nil
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int            `json:"total-results"`
		Items        []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI             string           `json:"DOI"`
	Title           []string         `json:"title"`
	Abstract        string           `json:"abstract"`
	Author          []crossrefAuthor `json:"author"`
	Published       crossrefDate     `json:"published"`
	PublishedOnline crossrefDate     `json:"published-online"`
	PublishedPrint  crossrefDate     `json:"published-print"`
	Created         crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// toTime returns the date as UTC midnight. Missing month or day default to 1.
func (d crossrefDate) toTime() (time.Time, bool) {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] <= 0 {
		return time.Time{}, false
	}
	parts := d.DateParts[0]
	month, day := 1, 1
	if len(parts) > 1 && parts[1] > 0 {
		month = parts[1]
	}
	if len(parts) > 2 && parts[2] > 0 {
		day = parts[2]
	}
	return time.Date(parts[0], time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func (w crossrefWork) toItem() (types.Item, bool) {
	doi := strings.TrimSpace(w.DOI)
	if doi == "" {
		return types.Item{}, false
	}

	it := types.Item{
		ID:         doi,
		Summary:    jatsText(w.Abstract),
		Link:       doiBase + doi,
		SourceName: types.ProviderCrossref,
	}
	if len(w.Title) > 0 {
		it.Title = collapseSpace(w.Title[0])
	}

	names := make([]string, 0, len(w.Author))
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name == "" {
			name = a.Name
		}
		names = append(names, name)
	}
	it.Author = joinAuthors(names)

	for _, d := range []crossrefDate{w.Published, w.PublishedOnline, w.PublishedPrint, w.Created} {
		if t, ok := d.toTime(); ok {
			it.Published = t
			break
		}
	}
	return it, true
}

// jatsText flattens a JATS XML abstract to plain text, dropping the
// "Abstract" heading Crossref usually includes.
func jatsText(abstract string) string {
	if strings.TrimSpace(abstract) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(abstract))
	if err != nil {
		return collapseSpace(abstract)
	}
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == "jats:title"
	}).Remove()

	var paras []string
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == "jats:p"
	}).Each(func(_ int, s *goquery.Selection) {
		if t := collapseSpace(s.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	if len(paras) == 0 {
		return collapseSpace(doc.Text())
	}
	return strings.Join(paras, " ")
}
