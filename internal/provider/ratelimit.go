package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/sydlexius/calliope/internal/reconcile"
)

// Default rate limits per provider (requests per second).
var defaultRateLimits = map[reconcile.Provider]rate.Limit{
	reconcile.MusicBrainz: 1,
	reconcile.Discogs:     1,
	reconcile.Spotify:     5,
	reconcile.LastFm:      5,
	reconcile.Genius:      2,
	reconcile.YouTube:     1,
}

// RateLimiterMap holds one rate.Limiter per provider, created once at startup.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[reconcile.Provider]*rate.Limiter
}

// NewRateLimiterMap creates all provider rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[reconcile.Provider]*rate.Limiter, len(defaultRateLimits)),
	}
	for name, limit := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(limit, 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given provider allows a request,
// or the context is canceled.
func (m *RateLimiterMap) Wait(ctx context.Context, name reconcile.Provider) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
