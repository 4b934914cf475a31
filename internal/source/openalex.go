// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexMaxPerPage is the largest per_page OpenAlex accepts.
const openAlexMaxPerPage = 200

// OpenAlexProvider searches OpenAlex works newest first.
type OpenAlexProvider struct {
	Client *httputil.Client
	// Mailto is sent for polite pool access.
	Mailto   string
	PageSize int
}

// Name returns the provider identifier.
func (p *OpenAlexProvider) Name() string { return types.ProviderOpenAlex }

// Search pages through works published on or after since until maxRows
// rows have been read, a short page arrives, or meta.count is exhausted.
func (p *OpenAlexProvider) Search(ctx context.Context, keyword string, since time.Time, maxRows int) ([]types.Item, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	perPage := p.PageSize
	if perPage <= 0 {
		perPage = 50
	}
	perPage = min(perPage, openAlexMaxPerPage, maxRows)

	var items []types.Item
	read := 0
	for page := 1; read < maxRows; page++ {
		oar, err := p.fetchPage(ctx, keyword, since, page, perPage)
		if err != nil {
			return nil, err
		}
		for _, w := range oar.Results {
			if read >= maxRows {
				break
			}
			read++
			if it, ok := w.toItem(); ok {
				items = append(items, it)
			}
		}
		if len(oar.Results) < perPage || page*perPage >= oar.Meta.Count {
			break
		}
	}
	return items, nil
}

func (p *OpenAlexProvider) fetchPage(ctx context.Context, keyword string, since time.Time, page, perPage int) (openAlexResponse, error) {
	params := url.Values{
		"search":   {keyword},
		"filter":   {"from_publication_date:" + since.Format(dateLayout)},
		"sort":     {"publication_date:desc"},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	}
	if p.Mailto != "" {
		params.Set("mailto", p.Mailto)
	}

	resp, err := p.Client.Get(ctx, openAlexSearchBase+"?"+params.Encode(), "application/json")
	if err != nil {
		return openAlexResponse{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return openAlexResponse{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return oar, nil
}

func (w openAlexWork) toItem() (types.Item, bool) {
	it := types.Item{
		Title:      collapseSpace(w.Title),
		Summary:    reconstructAbstract(w.AbstractInvertedIndex),
		SourceName: types.ProviderOpenAlex,
	}

	// Prefer the bare DOI as identifier; fall back to the OpenAlex id.
	switch {
	case w.DOI != "":
		doi := strings.TrimPrefix(w.DOI, doiBase)
		it.ID = doi
		it.Link = doiBase + doi
	case w.ID != "":
		it.ID = w.ID
		it.Link = w.ID
	default:
		return types.Item{}, false
	}

	names := make([]string, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		names = append(names, a.Author.DisplayName)
	}
	it.Author = joinAuthors(names)

	if w.PublicationDate != "" {
		if t, err := time.Parse(dateLayout, w.PublicationDate); err == nil {
			it.Published = t
		}
	}
	return it, true
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count int `json:"count"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}
