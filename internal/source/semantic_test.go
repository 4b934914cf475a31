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

func useSemantic(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() {
		semanticAPIBase = old
		ts.Close()
	})
}

func TestSemanticScholarProviderSearch(t *testing.T) {
	var params map[string]string
	var apiKey string
	useSemantic(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params = map[string]string{
			"query": q.Get("query"), "publicationDateOrYear": q.Get("publicationDateOrYear"),
			"offset": q.Get("offset"), "limit": q.Get("limit"),
		}
		apiKey = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{"total":3,"offset":0,"data":[
			{"paperId":"p1","title":"Sparse  Attention","abstract":"Sparse is fast.",
			 "publicationDate":"2025-02-10","authors":[{"name":"John Smith"},{"name":"A. Lee"}],
			 "externalIds":{"DOI":"10.5555/xyz","ArXiv":"2502.00001"}},
			{"paperId":"p2","title":"Preprint","year":2025,"externalIds":{"ArXiv":"2502.00002"}},
			{"paperId":"p3","title":"Bare"}
		]}`)
	})

	p := &SemanticScholarProvider{Client: testClient(), APIKey: "s2-key", PageSize: 50}
	items, err := p.Search(context.Background(), "attention", cutoff, 100)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"query": "attention", "publicationDateOrYear": "2025-01-01:", "offset": "0", "limit": "50",
	}, params)
	assert.Equal(t, "s2-key", apiKey)

	require.Len(t, items, 3)
	assert.Equal(t, "10.5555/xyz", items[0].ID)
	assert.Equal(t, "https://doi.org/10.5555/xyz", items[0].Link)
	assert.Equal(t, "Sparse Attention", items[0].Title)
	assert.Equal(t, "John Smith, A. Lee", items[0].Author)
	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), items[0].Published)
	assert.Equal(t, "semantic_scholar", items[0].SourceName)

	assert.Equal(t, "2502.00002", items[1].ID)
	assert.Equal(t, "https://arxiv.org/abs/2502.00002", items[1].Link)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), items[1].Published)

	assert.Equal(t, "p3", items[2].ID)
	assert.Equal(t, "https://www.semanticscholar.org/paper/p3", items[2].Link)
	assert.True(t, items[2].Published.IsZero())
}

func TestSemanticScholarProviderNoKeyHeader(t *testing.T) {
	present := true
	useSemantic(t, func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["X-Api-Key"]
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	})

	items, err := (&SemanticScholarProvider{Client: testClient()}).Search(context.Background(), "x", cutoff, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, present)
}

func TestSemanticScholarProviderPaging(t *testing.T) {
	var offsets []string
	useSemantic(t, func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		fmt.Fprint(w, `{"total":500,"data":[
			{"paperId":"a","publicationDate":"2025-02-10"},
			{"paperId":"b","publicationDate":"2025-02-10"}
		]}`)
	})

	items, err := (&SemanticScholarProvider{Client: testClient(), PageSize: 2}).Search(context.Background(), "x", cutoff, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, []string{"0", "2"}, offsets)
}

func TestSemanticScholarProviderErrors(t *testing.T) {
	useSemantic(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"Forbidden"}`)
	})

	p := &SemanticScholarProvider{Client: testClient()}
	_, err := p.Search(context.Background(), "x", cutoff, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	_, err = p.Search(context.Background(), "  ", cutoff, 10)
	assert.Error(t, err)
}
