// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields    = "title,abstract,authors,externalIds,year,publicationDate"
	semanticMaxLimit  = 100
	semanticPaperBase = "https://www.semanticscholar.org/paper/"
)

// SemanticScholarProvider queries the Semantic Scholar paper search.
type SemanticScholarProvider struct {
	Client   *httputil.Client
	APIKey   string
	PageSize int
}

// Name returns the provider identifier.
func (p *SemanticScholarProvider) Name() string { return types.ProviderSemanticScholar }

// Search pages with offset/limit over papers published on or after since
// until maxRows rows have been read, a short page arrives, or total is
// exhausted. Semantic Scholar ranks by relevance, so every page up to the
// cap is read.
func (p *SemanticScholarProvider) Search(ctx context.Context, keyword string, since time.Time, maxRows int) ([]types.Item, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	limit := p.PageSize
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, semanticMaxLimit)

	var items []types.Item
	for offset := 0; offset < maxRows; {
		rows := min(limit, maxRows-offset)
		sr, err := p.fetchPage(ctx, keyword, since, offset, rows)
		if err != nil {
			return nil, err
		}
		for _, paper := range sr.Data {
			if it, ok := paper.toItem(); ok {
				items = append(items, it)
			}
		}

		offset += len(sr.Data)
		if len(sr.Data) < rows || offset >= sr.Total {
			break
		}
	}
	if len(items) > maxRows {
		items = items[:maxRows]
	}
	return items, nil
}

func (p *SemanticScholarProvider) fetchPage(ctx context.Context, keyword string, since time.Time, offset, limit int) (semanticResponse, error) {
	params := url.Values{
		"query":                 {keyword},
		"fields":                {semanticFields},
		"publicationDateOrYear": {since.Format(dateLayout) + ":"},
		"offset":                {strconv.Itoa(offset)},
		"limit":                 {strconv.Itoa(limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return semanticResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.APIKey != "" {
		req.Header.Set("x-api-key", p.APIKey)
	}

	resp, err := p.Client.Do(ctx, req)
	if err != nil {
		return semanticResponse{}, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return semanticResponse{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return sr, nil
}

func (paper semanticPaper) toItem() (types.Item, bool) {
	it := types.Item{
		Title:      collapseSpace(paper.Title),
		Summary:    collapseSpace(paper.Abstract),
		SourceName: types.ProviderSemanticScholar,
	}

	// Prefer DOI so ids line up with Crossref and OpenAlex, then arXiv.
	switch {
	case paper.ExternalIDs.DOI != "":
		it.ID = paper.ExternalIDs.DOI
		it.Link = doiBase + paper.ExternalIDs.DOI
	case paper.ExternalIDs.ArXiv != "":
		it.ID = paper.ExternalIDs.ArXiv
		it.Link = arxivAbsBase + paper.ExternalIDs.ArXiv
	case paper.PaperID != "":
		it.ID = paper.PaperID
		it.Link = semanticPaperBase + paper.PaperID
	default:
		return types.Item{}, false
	}

	names := make([]string, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		names = append(names, a.Name)
	}
	it.Author = joinAuthors(names)

	if paper.PublicationDate != "" {
		if t, err := time.Parse(dateLayout, paper.PublicationDate); err == nil {
			it.Published = t
		}
	} else if paper.Year > 0 {
		it.Published = time.Date(paper.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return it, true
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
