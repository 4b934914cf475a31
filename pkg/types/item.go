// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the arxiv-monitor pipeline:
// the normalized Item every source produces, the Watchlist that drives
// matching, and the Settings the process is started with.
package types

import (
	"fmt"
	"time"
)

// Item is a candidate publication normalized at the source boundary. Every
// component downstream of a source adapter works on Item only.
type Item struct {
	// ID is the idempotency key: the feed entry id, arXiv id, or DOI. It must
	// stay stable across polls of the same publication.
	ID string `json:"id" yaml:"id"`

	// Title is the publication title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Summary is the abstract or feed description as plain text. May be empty.
	Summary string `json:"summary" yaml:"summary"`

	// Author is free text and may list several comma-separated authors.
	Author string `json:"author" yaml:"author"`

	// Link points at the publication (abs page or DOI resolver URL).
	Link string `json:"link" yaml:"link"`

	// SourceName identifies where the item came from (feed name or provider).
	SourceName string `json:"source_name" yaml:"source_name"`

	// Published is the publication date, zero when the source did not report one.
	Published time.Time `json:"published,omitempty" yaml:"published,omitempty"`
}

// String returns a short form used in log lines.
func (i Item) String() string {
	return fmt.Sprintf("%s (%s)", i.ID, i.SourceName)
}
