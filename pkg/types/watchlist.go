// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Search provider identifiers accepted in a watchlist.
const (
	ProviderCrossref        = "crossref"
	ProviderArxiv           = "arxiv"
	ProviderOpenAlex        = "openalex"
	ProviderSemanticScholar = "semantic_scholar"
)

// Watchlist is the filter configuration reloaded at the start of every
// cycle. It is treated as immutable for the duration of one cycle.
type Watchlist struct {
	// Feeds lists RSS/Atom feed URLs in polling order.
	Feeds []string `json:"feeds" yaml:"feeds" mapstructure:"feeds"`

	// Keywords are matched as lowercase substrings of title and summary.
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`

	// Authors are matched as lowercase substrings of the author field.
	Authors []string `json:"authors" yaml:"authors" mapstructure:"authors"`

	// Searches lists keyword-scoped search sources polled after the feeds.
	Searches []SearchSource `json:"searches,omitempty" yaml:"searches,omitempty" mapstructure:"searches"`
}

// SearchSource describes one works-search provider entry in the watchlist.
type SearchSource struct {
	// Provider is one of the Provider* identifiers.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Since is the publication cutoff date (YYYY-MM-DD). Empty means the
	// configured lookback window before the cycle start.
	Since string `json:"since,omitempty" yaml:"since,omitempty" mapstructure:"since"`

	// MaxRows caps the rows fetched per keyword. Zero means the default.
	MaxRows int `json:"max_rows,omitempty" yaml:"max_rows,omitempty" mapstructure:"max_rows"`
}

// Filters returns the keyword/author sets used by the matcher.
func (w Watchlist) Filters() Filters {
	return Filters{Keywords: w.Keywords, Authors: w.Authors}
}

// SourceCount returns the number of sources a cycle over w will poll.
func (w Watchlist) SourceCount() int {
	return len(w.Feeds) + len(w.Searches)
}

// Filters holds the keyword and author sets for matching.
type Filters struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Authors  []string `json:"authors" yaml:"authors"`
}

// IsEmpty reports whether no keyword or author could ever match.
func (f Filters) IsEmpty() bool {
	return len(f.Keywords) == 0 && len(f.Authors) == 0
}
