// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watchlist reads the filter configuration that drives each poll
// cycle: feeds to fetch, keyword and author filters, and search sources.
package watchlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Lukael/arxiv-monitoring-bot/internal/match"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// Load reads the watchlist at path. JSON is the native format; .yaml and
// .yml files are decoded as YAML. Missing keys default to empty lists.
// Keywords and authors are normalized with match.Normalize; feed URLs and
// search providers are trimmed and blanks dropped.
func Load(path string) (types.Watchlist, error) {
	if path == "" {
		return types.Watchlist{}, fmt.Errorf("watchlist path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return types.Watchlist{}, fmt.Errorf("reading watchlist %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType(path))
	if err := v.ReadInConfig(); err != nil {
		return types.Watchlist{}, fmt.Errorf("parsing watchlist %s: %w", path, err)
	}

	var w types.Watchlist
	if err := v.Unmarshal(&w); err != nil {
		return types.Watchlist{}, fmt.Errorf("decoding watchlist %s: %w", path, err)
	}
	return normalize(w), nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func normalize(w types.Watchlist) types.Watchlist {
	out := types.Watchlist{
		Feeds:    trimAll(w.Feeds),
		Keywords: match.Normalize(w.Keywords),
		Authors:  match.Normalize(w.Authors),
	}
	for _, s := range w.Searches {
		s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
		s.Since = strings.TrimSpace(s.Since)
		if s.Provider == "" {
			continue
		}
		out.Searches = append(out.Searches, s)
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
