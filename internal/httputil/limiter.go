// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces a minimum gap between requests to the same host.
// A nil *HostLimiter or a zero gap never waits.
type HostLimiter struct {
	gap time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter returns a limiter allowing one request per gap per host.
func NewHostLimiter(gap time.Duration) *HostLimiter {
	return &HostLimiter{gap: gap, limiters: make(map[string]*rate.Limiter)}
}

// Wait blocks until a request to rawURL's host is allowed or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil || h.gap <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", rawURL)
	}
	return h.forHost(u.Host).Wait(ctx)
}

func (h *HostLimiter) forHost(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.gap), 1)
		h.limiters[host] = l
	}
	return l
}
