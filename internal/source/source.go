// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches candidate items from external bibliographic
// sources and normalizes them into types.Item. Two adapters exist: FeedSource
// reads RSS/Atom feeds, and SearchSource runs one keyword query per
// configured keyword against a works-search Provider (Crossref, the arXiv
// API, OpenAlex, or Semantic Scholar).
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// Source yields candidate items for one poll. Implementations never
// mutate shared state; the orchestrator owns dedup and delivery.
type Source interface {
	Name() string
	Fetch(ctx context.Context, filters types.Filters) ([]types.Item, error)
}

// Deps carries what Build needs to construct sources.
type Deps struct {
	Client *httputil.Client
	Search types.SearchConfig
	Logger zerolog.Logger
}

const dateLayout = "2006-01-02"

// Build turns a watchlist into the ordered list of sources for one cycle:
// feeds in config order, then searches in config order. A search entry with
// an unknown provider or a bad since date is logged and skipped.
func Build(w types.Watchlist, deps Deps, now time.Time) []Source {
	sources := make([]Source, 0, w.SourceCount())
	for _, u := range w.Feeds {
		sources = append(sources, NewFeedSource(u, deps.Client))
	}

	for i, s := range w.Searches {
		log := deps.Logger.With().Int("search", i).Str("provider", s.Provider).Logger()

		p, err := NewProvider(s.Provider, deps)
		if err != nil {
			log.Warn().Err(err).Msg("skipping search source")
			continue
		}

		since := now.UTC().Add(-deps.Search.Lookback).Truncate(24 * time.Hour)
		if s.Since != "" {
			since, err = time.Parse(dateLayout, s.Since)
			if err != nil {
				log.Warn().Err(err).Str("since", s.Since).Msg("skipping search source with bad since date")
				continue
			}
		}

		maxRows := s.MaxRows
		if maxRows <= 0 {
			maxRows = deps.Search.MaxRows
		}
		sources = append(sources, NewSearchSource(p, since, maxRows, log))
	}
	return sources
}

// NewProvider returns the Provider registered under name.
func NewProvider(name string, deps Deps) (Provider, error) {
	switch strings.ToLower(name) {
	case types.ProviderCrossref:
		return &CrossrefProvider{Client: deps.Client, Mailto: deps.Search.Mailto, PageSize: deps.Search.PageSize}, nil
	case types.ProviderArxiv:
		return &ArxivProvider{Client: deps.Client, PageSize: deps.Search.PageSize}, nil
	case types.ProviderOpenAlex:
		return &OpenAlexProvider{Client: deps.Client, Mailto: deps.Search.Mailto, PageSize: deps.Search.PageSize}, nil
	case types.ProviderSemanticScholar:
		return &SemanticScholarProvider{Client: deps.Client, APIKey: deps.Search.SemanticScholarKey, PageSize: deps.Search.PageSize}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", name)
	}
}

// collapseSpace trims s and folds every whitespace run into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinAuthors(names []string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = collapseSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}
