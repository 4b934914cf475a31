// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match implements the keyword/author filter applied to every
// candidate item. Matching is a plain case-insensitive substring test: no
// tokenization, stemming, or ranking.
package match

import (
	"strings"

	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// Matches reports whether any keyword is a substring of the item's title or
// summary, or any author string is a substring of the item's author field.
// Comparison is case-insensitive. Empty filter sets never match, and blank
// entries are ignored rather than treated as wildcards.
func Matches(item types.Item, f types.Filters) bool {
	if f.IsEmpty() {
		return false
	}

	title := strings.ToLower(item.Title)
	summary := strings.ToLower(item.Summary)
	for _, kw := range f.Keywords {
		kw = strings.ToLower(kw)
		if strings.TrimSpace(kw) == "" {
			continue
		}
		if strings.Contains(title, kw) || strings.Contains(summary, kw) {
			return true
		}
	}

	author := strings.ToLower(item.Author)
	for _, a := range f.Authors {
		a = strings.ToLower(a)
		if strings.TrimSpace(a) == "" {
			continue
		}
		if strings.Contains(author, a) {
			return true
		}
	}
	return false
}

// Normalize lowercases and trims terms, drops blanks and duplicates, and
// keeps the first-seen order.
func Normalize(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
