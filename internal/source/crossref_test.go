// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useCrossref(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	t.Cleanup(func() {
		crossrefAPIBase = old
		ts.Close()
	})
}

func crossrefPage(total int, works ...string) string {
	return fmt.Sprintf(`{"status":"ok","message-type":"work-list","message":{"total-results":%d,"items":[%s]}}`,
		total, strings.Join(works, ","))
}

func crossrefWorkJSON(doi string) string {
	return fmt.Sprintf(`{"DOI":%q,"title":["Work %s"],"published":{"date-parts":[[2025,2,1]]}}`, doi, doi)
}

func TestCrossrefSearchRequestAndMapping(t *testing.T) {
	var got map[string]string
	useCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"query": q.Get("query"), "sort": q.Get("sort"), "order": q.Get("order"),
			"rows": q.Get("rows"), "offset": q.Get("offset"), "filter": q.Get("filter"), "mailto": q.Get("mailto"),
		}
		fmt.Fprint(w, crossrefPage(1, `{
			"DOI": "10.1234/abc",
			"title": ["  Attention   Is All You Need  "],
			"abstract": "<jats:title>Abstract</jats:title><jats:p>We propose the <jats:italic>Transformer</jats:italic>.</jats:p>",
			"author": [{"given":"Ashish","family":"Vaswani"},{"name":"Google Brain"},{"family":"Shazeer"}],
			"published-online": {"date-parts": [[2025, 3, 4]]},
			"created": {"date-parts": [[2025, 1, 1]]}
		}`))
	})

	p := &CrossrefProvider{Client: testClient(), Mailto: "me@example.org", PageSize: 50}
	items, err := p.Search(context.Background(), "transformer", cutoff, 100)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"query": "transformer", "sort": "published", "order": "desc",
		"rows": "50", "offset": "0", "filter": "from-pub-date:2025-01-01", "mailto": "me@example.org",
	}, got)

	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "10.1234/abc", it.ID)
	assert.Equal(t, "Attention Is All You Need", it.Title)
	assert.Equal(t, "We propose the Transformer.", it.Summary)
	assert.Equal(t, "Ashish Vaswani, Google Brain, Shazeer", it.Author)
	assert.Equal(t, "https://doi.org/10.1234/abc", it.Link)
	assert.Equal(t, "crossref", it.SourceName)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), it.Published, "published-online beats created")
}

func TestCrossrefPaginationStopsAtMaxRows(t *testing.T) {
	var mu sync.Mutex
	var offsets []string
	useCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		offsets = append(offsets, r.URL.Query().Get("offset"))
		mu.Unlock()
		rows, _ := strconv.Atoi(r.URL.Query().Get("rows"))
		off, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		works := make([]string, 0, rows)
		for i := 0; i < rows; i++ {
			works = append(works, crossrefWorkJSON(fmt.Sprintf("10.1/%d", off+i)))
		}
		fmt.Fprint(w, crossrefPage(10000, works...))
	})

	p := &CrossrefProvider{Client: testClient(), PageSize: 20}
	items, err := p.Search(context.Background(), "graph", cutoff, 45)
	require.NoError(t, err)
	assert.Len(t, items, 45)
	assert.Equal(t, []string{"0", "20", "40"}, offsets)
}

func TestCrossrefPaginationStopsAtTotalAndShortPage(t *testing.T) {
	calls := 0
	useCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		off, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if off == 0 {
			fmt.Fprint(w, crossrefPage(3, crossrefWorkJSON("10.1/a"), crossrefWorkJSON("10.1/b")))
			return
		}
		fmt.Fprint(w, crossrefPage(3, crossrefWorkJSON("10.1/c")))
	})

	p := &CrossrefProvider{Client: testClient(), PageSize: 2}
	items, err := p.Search(context.Background(), "graph", cutoff, 100)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 2, calls)
}

func TestCrossrefStatusNotOK(t *testing.T) {
	useCrossref(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"failed","message":[{"type":"validation-failure"}]}`)
	})

	_, err := (&CrossrefProvider{Client: testClient()}).Search(context.Background(), "x", cutoff, 10)
	require.Error(t, err)
}

func TestCrossrefHTTPError(t *testing.T) {
	useCrossref(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := (&CrossrefProvider{Client: testClient()}).Search(context.Background(), "x", cutoff, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestCrossrefDateFallback(t *testing.T) {
	tests := []struct {
		name string
		work crossrefWork
		want time.Time
	}{
		{
			name: "print when nothing earlier",
			work: crossrefWork{DOI: "d", PublishedPrint: crossrefDate{DateParts: [][]int{{2024, 6, 2}}}},
			want: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "year only",
			work: crossrefWork{DOI: "d", Published: crossrefDate{DateParts: [][]int{{2024}}}},
			want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "created as last resort",
			work: crossrefWork{DOI: "d", Created: crossrefDate{DateParts: [][]int{{2023, 12, 31}}}},
			want: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "no date",
			work: crossrefWork{DOI: "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, ok := tt.work.toItem()
			require.True(t, ok)
			assert.Equal(t, tt.want, it.Published)
		})
	}

	_, ok := crossrefWork{}.toItem()
	assert.False(t, ok, "work without DOI is dropped")
}

func TestJATSText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Plain abstract text.", "Plain abstract text."},
		{"<jats:p>One.</jats:p>\n<jats:p>Two  words.</jats:p>", "One. Two words."},
		{"<jats:sec><jats:title>Background</jats:title><jats:p>Body.</jats:p></jats:sec>", "Body."},
	}
	for _, tt := range tests {
		if got := jatsText(tt.in); got != tt.want {
			t.Errorf("jatsText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
