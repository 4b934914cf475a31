// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lukael/arxiv-monitoring-bot/internal/match"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// Provider runs a single keyword query against a works-search API and
// returns at most maxRows items published on or after since.
type Provider interface {
	Name() string
	Search(ctx context.Context, keyword string, since time.Time, maxRows int) ([]types.Item, error)
}

// SearchSource issues one Provider query per configured keyword.
type SearchSource struct {
	provider Provider
	since    time.Time
	maxRows  int
	log      zerolog.Logger
}

// NewSearchSource wraps p with a publication cutoff and a per-keyword row cap.
func NewSearchSource(p Provider, since time.Time, maxRows int, log zerolog.Logger) *SearchSource {
	return &SearchSource{provider: p, since: since, maxRows: maxRows, log: log}
}

// Name returns the provider name.
func (s *SearchSource) Name() string { return s.provider.Name() }

// Since returns the publication cutoff.
func (s *SearchSource) Since() time.Time { return s.since }

// Fetch runs one query per keyword. A failing keyword is logged and the
// remaining keywords still run; an error is returned only when every
// keyword failed. Results are cut to items dated on or after the cutoff,
// deduplicated by id, and passed through the matcher.
func (s *SearchSource) Fetch(ctx context.Context, filters types.Filters) ([]types.Item, error) {
	var (
		items    []types.Item
		seen     = make(map[string]struct{})
		queried  int
		failures int
		lastErr  error
	)

	for _, kw := range filters.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		queried++

		found, err := s.provider.Search(ctx, kw, s.since, s.maxRows)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			lastErr = err
			s.log.Warn().Err(err).Str("keyword", kw).Msg("keyword query failed")
			continue
		}

		kept := 0
		for _, it := range found {
			if it.ID == "" || it.Published.IsZero() || it.Published.Before(s.since) {
				continue
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			if !match.Matches(it, filters) {
				continue
			}
			items = append(items, it)
			kept++
		}
		s.log.Debug().Str("keyword", kw).Int("rows", len(found)).Int("kept", kept).Msg("keyword query done")
	}

	if queried > 0 && failures == queried {
		return nil, fmt.Errorf("all %d keyword queries failed: %w", queried, lastErr)
	}
	return items, nil
}
