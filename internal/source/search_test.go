// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name    string
	results map[string][]types.Item
	errs    map[string]error
	calls   []string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(_ context.Context, keyword string, _ time.Time, _ int) ([]types.Item, error) {
	m.calls = append(m.calls, keyword)
	if err := m.errs[keyword]; err != nil {
		return nil, err
	}
	return m.results[keyword], nil
}

var cutoff = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func day(d int) time.Time { return cutoff.AddDate(0, 0, d) }

// --- SearchSource ---

func TestSearchSourceSkipsFailingKeyword(t *testing.T) {
	p := &mockProvider{
		name: "crossref",
		errs: map[string]error{"transformer": errors.New("Crossref API returned HTTP 503")},
		results: map[string][]types.Item{
			"diffusion": {{ID: "10.1/a", Title: "Diffusion for Images", Published: day(2)}},
		},
	}
	src := NewSearchSource(p, cutoff, 100, zerolog.Nop())

	items, err := src.Fetch(context.Background(), types.Filters{Keywords: []string{"transformer", "diffusion"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"transformer", "diffusion"}, p.calls)
	require.Len(t, items, 1)
	assert.Equal(t, "10.1/a", items[0].ID)
}

func TestSearchSourceAllKeywordsFail(t *testing.T) {
	boom := errors.New("boom")
	p := &mockProvider{name: "crossref", errs: map[string]error{"a": boom, "b": boom}}

	_, err := NewSearchSource(p, cutoff, 10, zerolog.Nop()).Fetch(context.Background(), types.Filters{Keywords: []string{"a", "b"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "all 2 keyword queries failed")
}

func TestSearchSourceCutoffDedupAndMatch(t *testing.T) {
	p := &mockProvider{
		name: "crossref",
		results: map[string][]types.Item{
			"graph": {
				{ID: "new", Title: "Graph Learning", Published: day(3)},
				{ID: "edge", Title: "Graph on the cutoff day", Published: cutoff},
				{ID: "old", Title: "Graph History", Published: day(-1)},
				{ID: "undated", Title: "Graph Undated"},
				{ID: "", Title: "Graph without id", Published: day(1)},
				{ID: "loose", Title: "Unrelated title", Summary: "nothing here", Published: day(1)},
			},
			"learning": {
				{ID: "new", Title: "Graph Learning", Published: day(3)},
				{ID: "second", Title: "Deep Learning", Published: day(4)},
			},
		},
	}

	items, err := NewSearchSource(p, cutoff, 100, zerolog.Nop()).Fetch(context.Background(),
		types.Filters{Keywords: []string{"graph", "learning"}})
	require.NoError(t, err)

	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"new", "edge", "second"}, ids)
}

func TestSearchSourceNoKeywordsNoQueries(t *testing.T) {
	p := &mockProvider{name: "crossref"}

	items, err := NewSearchSource(p, cutoff, 10, zerolog.Nop()).Fetch(context.Background(),
		types.Filters{Authors: []string{"smith"}, Keywords: []string{"  "}})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, p.calls)
}

func TestSearchSourceContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &mockProvider{name: "crossref", errs: map[string]error{"x": context.Canceled}}

	_, err := NewSearchSource(p, cutoff, 10, zerolog.Nop()).Fetch(ctx, types.Filters{Keywords: []string{"x", "y"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"x"}, p.calls)
}

// --- Build ---

func TestBuild(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	deps := Deps{
		Client: testClient(),
		Search: types.SearchConfig{MaxRows: 100, PageSize: 50, Lookback: 7 * 24 * time.Hour},
		Logger: zerolog.Nop(),
	}
	w := types.Watchlist{
		Feeds: []string{"https://rss.arxiv.org/rss/cs.LG", "https://rss.arxiv.org/rss/cs.CL"},
		Searches: []types.SearchSource{
			{Provider: "crossref", Since: "2025-01-01", MaxRows: 20},
			{Provider: "scopus"},
			{Provider: "openalex", Since: "01/02/2025"},
			{Provider: "arxiv"},
		},
	}

	sources := Build(w, deps, now)
	require.Len(t, sources, 4)

	var names []string
	for _, s := range sources {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"cs.LG", "cs.CL", "crossref", "arxiv"}, names)

	cr := sources[2].(*SearchSource)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cr.Since())
	assert.Equal(t, 20, cr.maxRows)

	ax := sources[3].(*SearchSource)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), ax.Since())
	assert.Equal(t, 100, ax.maxRows)
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("scopus", Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search provider")
}

func TestNewProviderSemanticScholar(t *testing.T) {
	p, err := NewProvider("Semantic_Scholar", Deps{Search: types.SearchConfig{SemanticScholarKey: "k", PageSize: 30}})
	require.NoError(t, err)
	s2, ok := p.(*SemanticScholarProvider)
	require.True(t, ok)
	assert.Equal(t, "k", s2.APIKey)
	assert.Equal(t, 30, s2.PageSize)
	assert.Equal(t, "semantic_scholar", s2.Name())
}
