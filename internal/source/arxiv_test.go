// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arxivAtom(entries ...string) string {
	s := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/x</id>
  <updated>2025-03-10T00:00:00Z</updated>`
	for _, e := range entries {
		s += e
	}
	return s + "</feed>"
}

func arxivEntry(id, title, published string) string {
	return fmt.Sprintf(`
  <entry>
    <id>http://arxiv.org/abs/%s</id>
    <published>%s</published>
    <updated>%s</updated>
    <title>%s</title>
    <summary>  An abstract
      over two lines. </summary>
    <author><name>John Smith</name></author>
    <author><name>A. Lee</name></author>
    <link href="http://arxiv.org/abs/%s" rel="alternate" type="text/html"/>
  </entry>`, id, published, published, title, id)
}

func useArxiv(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	old := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() {
		arxivAPIBase = old
		ts.Close()
	})
}

// --- extractArxivID ---

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041v12", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v2", "hep-th/9901001"},
		{"urn:uuid:1", ""},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- buildArxivQuery ---

func TestBuildArxivQuery(t *testing.T) {
	assert.Equal(t, "all:transformer", buildArxivQuery("transformer"))
	assert.Equal(t, `all:"graph neural network"`, buildArxivQuery("  graph  neural network "))
	assert.Equal(t, "", buildArxivQuery("   "))
}

// --- ArxivProvider ---

func TestArxivProviderSearch(t *testing.T) {
	var query, sortBy, maxResults string
	useArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("search_query")
		sortBy = r.URL.Query().Get("sortBy")
		maxResults = r.URL.Query().Get("max_results")
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivAtom(
			arxivEntry("2503.00001v2", "Fresh  Transformer\n Result", "2025-03-05T12:00:00Z"),
			arxivEntry("2412.00009v1", "Old Result", "2024-12-01T00:00:00Z"),
		))
	})

	p := &ArxivProvider{Client: testClient(), PageSize: 25}
	items, err := p.Search(context.Background(), "transformer", cutoff, 100)
	require.NoError(t, err)

	assert.Equal(t, "all:transformer", query)
	assert.Equal(t, "submittedDate", sortBy)
	assert.Equal(t, "25", maxResults)

	require.Len(t, items, 1, "entries older than the cutoff are dropped")
	it := items[0]
	assert.Equal(t, "2503.00001", it.ID)
	assert.Equal(t, "Fresh Transformer Result", it.Title)
	assert.Equal(t, "An abstract over two lines.", it.Summary)
	assert.Equal(t, "John Smith, A. Lee", it.Author)
	assert.Equal(t, "https://arxiv.org/abs/2503.00001", it.Link)
	assert.Equal(t, "arxiv", it.SourceName)
	assert.Equal(t, time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC), it.Published)
}

func TestArxivProviderPaginates(t *testing.T) {
	var starts []string
	useArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		starts = append(starts, start)
		if start == "0" {
			fmt.Fprint(w, arxivAtom(
				arxivEntry("2503.00001v1", "A", "2025-03-05T00:00:00Z"),
				arxivEntry("2503.00002v1", "B", "2025-03-04T00:00:00Z"),
			))
			return
		}
		fmt.Fprint(w, arxivAtom(arxivEntry("2503.00003v1", "C", "2025-03-03T00:00:00Z")))
	})

	items, err := (&ArxivProvider{Client: testClient(), PageSize: 2}).Search(context.Background(), "x", cutoff, 10)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, []string{"0", "2"}, starts)
}

func TestArxivProviderHTTPError(t *testing.T) {
	useArxiv(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := (&ArxivProvider{Client: testClient()}).Search(context.Background(), "x", cutoff, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arXiv API request")
}
